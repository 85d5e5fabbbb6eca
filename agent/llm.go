package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/healthmesh/core"
	"github.com/hupe1980/healthmesh/model"
	"github.com/hupe1980/healthmesh/tool"
)

// StopTarget is the decision value an agent uses to end the turn instead of
// naming a peer.
const StopTarget = "STOP"

// decisionProtocol is appended to every routing agent's instructions. The
// model must answer with this JSON shape so the handoff can be parsed
// deterministically.
const decisionProtocol = `
Respond with a single JSON object and nothing else, in this exact shape:
{
  "next_agent": "<exact peer name, or STOP to end the turn>",
  "reason": "<one sentence explaining the routing choice>",
  "response": "<your contribution for the user or for the next agent>",
  "findings": {"<key>": "<fact you discovered>"},
  "add_tasks": ["<follow-up work another agent should pick up>"],
  "complete_tasks": ["<pending task you just finished>"]
}
Omit findings, add_tasks and complete_tasks when you have nothing to record.`

// LLMAgentOptions configures an LLMAgent instance.
//
// Use functional options with NewLLMAgent to override defaults.
type LLMAgentOptions struct {
	Instruction   Instruction
	Tools         []tool.Tool
	DefaultTarget string
	PlainResponse bool
	ToolTimeout   time.Duration
	MaxToolRounds int
	MaxHistory    int
}

// LLMAgent integrates with a language model to decide handoffs and produce
// responses. It supports function calling with registered tools, bounded
// tool-call rounds and (for the terminal agent) incremental output streaming.
type LLMAgent struct {
	name          string
	description   string
	llm           model.Model
	instruction   Instruction
	tools         map[string]tool.Tool
	toolDefs      []model.ToolDefinition
	defaultTarget string
	plainResponse bool
	toolTimeout   time.Duration
	maxToolRounds int
	maxHistory    int
}

// NewLLMAgent creates a model-backed agent.
//
// The agent is initialized with:
//   - A minimal role instruction derived from the name
//   - No tools and no default handoff target
//   - 15-second timeout for individual tool calls
//   - 4 tool-call rounds per invocation
//   - 20-message conversation history window
func NewLLMAgent(name, description string, llm model.Model, optFns ...func(o *LLMAgentOptions)) *LLMAgent {
	opts := LLMAgentOptions{
		Instruction:   NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		ToolTimeout:   15 * time.Second,
		MaxToolRounds: 4,
		MaxHistory:    20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &LLMAgent{
		name:          name,
		description:   description,
		llm:           llm,
		instruction:   opts.Instruction,
		tools:         make(map[string]tool.Tool),
		defaultTarget: opts.DefaultTarget,
		plainResponse: opts.PlainResponse,
		toolTimeout:   opts.ToolTimeout,
		maxToolRounds: opts.MaxToolRounds,
		maxHistory:    opts.MaxHistory,
	}
	for _, t := range opts.Tools {
		a.tools[t.Name()] = t
		a.toolDefs = append(a.toolDefs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	return a
}

// Name implements core.Agent.
func (a *LLMAgent) Name() string { return a.name }

// Description implements core.Agent.
func (a *LLMAgent) Description() string { return a.description }

// Run implements core.Agent. It resolves the instructions, drives the model
// through bounded tool-call rounds and parses the final output into a
// Handoff.
func (a *LLMAgent) Run(tc *core.TurnContext) (core.Handoff, error) {
	instructions, err := a.instruction.Resolve(tc)
	if err != nil {
		return core.Handoff{}, fmt.Errorf("failed to resolve instructions: %w", err)
	}
	instructions = a.composeInstructions(instructions, tc)

	msgs := a.historyMessages(tc)
	var trace []core.ToolInvocation
	var final model.Response

	for round := 0; ; round++ {
		req := model.Request{
			Instructions: instructions,
			Messages:     msgs,
			Stream:       a.plainResponse && tc.Emit != nil,
		}
		if round < a.maxToolRounds {
			req.Tools = a.toolDefs
		}

		final, err = a.generate(tc, req)
		if err != nil {
			return core.Handoff{ToolTrace: trace}, err
		}
		if len(final.ToolCalls) == 0 || round >= a.maxToolRounds {
			break
		}

		msgs = append(msgs, model.Message{
			Role:      "assistant",
			Content:   final.Text,
			ToolCalls: final.ToolCalls,
		})
		for _, call := range final.ToolCalls {
			result, inv := a.executeTool(tc, call)
			trace = append(trace, inv)
			msgs = append(msgs, model.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	handoff := a.parseHandoff(tc, final.Text)
	handoff.ToolTrace = trace
	return handoff, nil
}

// composeInstructions assembles the full system prompt: role instructions,
// peer directory, shared context snapshot and (for routing agents) the
// decision protocol.
func (a *LLMAgent) composeInstructions(instructions string, tc *core.TurnContext) string {
	var b strings.Builder
	b.WriteString(instructions)

	if len(tc.Peers) > 0 {
		b.WriteString("\n\nYou work in a team. Peers you can hand off to:\n")
		for _, p := range tc.Peers {
			fmt.Fprintf(&b, "- %s: %s\n", p.Name, p.Description)
		}
	}

	if tc.Shared != nil {
		if intent := tc.Shared.UserIntent; intent != "" {
			fmt.Fprintf(&b, "\nOriginal user intent: %s\n", intent)
		}
		if findings := tc.Shared.Findings(); len(findings) > 0 {
			b.WriteString("\nFindings so far:\n")
			for _, f := range findings {
				fmt.Fprintf(&b, "- %s: %s\n", f.Key, f.Value)
			}
		}
		if tasks := tc.Shared.PendingTasks(); len(tasks) > 0 {
			b.WriteString("\nPending tasks:\n")
			for _, t := range tasks {
				fmt.Fprintf(&b, "- %s\n", t)
			}
		}
	}

	if !a.plainResponse {
		b.WriteString("\n")
		b.WriteString(decisionProtocol)
	}
	return b.String()
}

// historyMessages maps the shared conversation history to model messages,
// keeping only the most recent window.
func (a *LLMAgent) historyMessages(tc *core.TurnContext) []model.Message {
	history := tc.Shared.History()
	if a.maxHistory > 0 && len(history) > a.maxHistory {
		history = history[len(history)-a.maxHistory:]
	}

	msgs := make([]model.Message, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == core.RoleAgent {
			role = "assistant"
		}
		msgs = append(msgs, model.Message{Role: role, Content: m.Content})
	}
	if len(msgs) == 0 {
		msgs = append(msgs, model.Message{Role: "user", Content: tc.UserMessage})
	}
	return msgs
}

// generate drains one model generation, forwarding partial chunks to the
// caller when streaming is enabled.
func (a *LLMAgent) generate(tc *core.TurnContext, req model.Request) (model.Response, error) {
	respCh, errCh := a.llm.Generate(tc.Context, req)

	var final model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-tc.Done():
			return model.Response{}, tc.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if req.Stream {
					if err := tc.EmitPartial(resp.Text); err != nil {
						return model.Response{}, err
					}
				}
				continue
			}
			final = resp
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return model.Response{}, fmt.Errorf("model generation failed: %w", err)
			}
		}
	}
	return final, nil
}

// executeTool runs a single tool call with the configured timeout and
// returns the stringified result plus its trace record. Tool failures are
// reported back to the model instead of aborting the invocation.
func (a *LLMAgent) executeTool(tc *core.TurnContext, call model.ToolCall) (string, core.ToolInvocation) {
	inv := core.ToolInvocation{Name: call.Name, Args: call.Arguments}
	start := time.Now()

	t, ok := a.tools[call.Name]
	if !ok {
		inv.Err = fmt.Sprintf("tool %s not found", call.Name)
		inv.Duration = time.Since(start)
		return fmt.Sprintf("error: %s", inv.Err), inv
	}

	args := make(map[string]any)
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			inv.Err = fmt.Sprintf("invalid arguments: %v", err)
			inv.Duration = time.Since(start)
			return fmt.Sprintf("error: %s", inv.Err), inv
		}
	}

	ctx, cancel := context.WithTimeout(tc.Context, a.toolTimeout)
	defer cancel()

	result, err := t.Call(ctx, args)
	inv.Duration = time.Since(start)
	tc.LogDebug("tool call agent=%s tool=%s duration_ms=%d", a.name, call.Name, inv.Duration.Milliseconds())
	if err != nil {
		inv.Err = err.Error()
		return fmt.Sprintf("error: %v", err), inv
	}

	switch v := result.(type) {
	case string:
		return v, inv
	default:
		b, err := json.Marshal(v)
		if err != nil {
			inv.Err = fmt.Sprintf("unencodable result: %v", err)
			return fmt.Sprintf("error: %s", inv.Err), inv
		}
		return string(b), inv
	}
}

// parseHandoff turns the model's final text into a Handoff. Plain-response
// agents stop with their full output as the answer. Routing agents must
// produce the decision JSON; output that does not parse falls back to the
// configured default target so a malformed decision never strands the turn.
func (a *LLMAgent) parseHandoff(tc *core.TurnContext, text string) core.Handoff {
	if a.plainResponse {
		return core.Handoff{Stop: true, FinalText: strings.TrimSpace(text)}
	}

	decision, ok := extractDecision(text)
	if !ok {
		tc.LogWarn("unparseable decision output agent=%s", a.name)
		return core.Handoff{
			Target: a.defaultTarget,
			Reason: "decision output was not valid JSON",
			Update: a.responseFinding(strings.TrimSpace(text)),
		}
	}

	handoff := core.Handoff{
		Reason:    decision.Get("reason").String(),
		FinalText: strings.TrimSpace(decision.Get("response").String()),
	}
	decision.Get("findings").ForEach(func(key, value gjson.Result) bool {
		handoff.Update.Findings = append(handoff.Update.Findings, core.Finding{
			Key:   key.String(),
			Value: value.String(),
		})
		return true
	})
	decision.Get("add_tasks").ForEach(func(_, value gjson.Result) bool {
		handoff.Update.AddTasks = append(handoff.Update.AddTasks, value.String())
		return true
	})
	decision.Get("complete_tasks").ForEach(func(_, value gjson.Result) bool {
		handoff.Update.CompleteTasks = append(handoff.Update.CompleteTasks, value.String())
		return true
	})

	next := strings.TrimSpace(decision.Get("next_agent").String())
	switch {
	case strings.EqualFold(next, StopTarget):
		handoff.Stop = true
	case next != "":
		handoff.Target = next
	default:
		handoff.Target = a.defaultTarget
	}
	return handoff
}

// responseFinding preserves unparseable output as a finding so the work is
// not silently lost.
func (a *LLMAgent) responseFinding(text string) core.ContextUpdate {
	if text == "" {
		return core.ContextUpdate{}
	}
	return core.ContextUpdate{Findings: []core.Finding{{Key: a.name, Value: text}}}
}

// extractDecision locates the decision JSON object in the model output,
// tolerating markdown code fences and surrounding prose.
func extractDecision(text string) (gjson.Result, bool) {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return gjson.Result{}, false
	}

	decision := gjson.Parse(candidate)
	if !decision.Get("next_agent").Exists() && !decision.Get("response").Exists() {
		return gjson.Result{}, false
	}
	return decision, true
}
