package testutil

import "github.com/hupe1980/healthmesh/core"

// CollectEvents drains an event channel into a slice.
func CollectEvents(ch <-chan core.Event) []core.Event {
	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

// EventKinds projects events onto their kinds, preserving order.
func EventKinds(events []core.Event) []core.EventKind {
	kinds := make([]core.EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// AgentsActivated returns the agent names from agent-active events in order.
func AgentsActivated(events []core.Event) []string {
	var agents []string
	for _, ev := range events {
		if ev.Kind == core.EventAgentActive {
			agents = append(agents, ev.Agent)
		}
	}
	return agents
}
