package core

import (
	"sync"
	"time"
)

// Message roles used in the conversation history.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Message is a single entry in the conversation history. Immutable once
// appended.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
}

// Finding is a key/value fact discovered by an agent during a turn.
type Finding struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Context is the structured, mutable per-session state passed between agents.
// It is exclusively owned by the session manager; the dispatch loop and
// agents mutate it during a turn while the per-session turn lock is held.
// It is additionally safe for concurrent access.
//
// Contract:
//   - History is append-only, never truncated or reordered
//   - Findings are append-only within a turn
//   - SessionID and UserIntent are immutable after they are first set
//   - Per-turn counters (HopCount, AgentSequence, TriageCallCount,
//     CriticReturnCount) are reset by ResetTurn at the start of each turn
type Context struct {
	SessionID  string `json:"session_id"`
	UserIntent string `json:"user_intent"`

	findings     []Finding
	pendingTasks []string
	history      []Message

	// Per-turn dispatch counters, owned by the dispatch loop.
	HopCount          int      `json:"hop_count"`
	AgentSequence     []string `json:"agent_sequence"`
	TriageCallCount   int      `json:"triage_call_count"`
	CriticReturnCount int      `json:"critic_return_count"`

	// DataVersion is the upstream data version snapshotted at turn start.
	// Owned by the data version tracker; never mutated by agents.
	DataVersion int64 `json:"data_version"`

	// LastActive drives session expiry and is refreshed by the session
	// manager on every access.
	LastActive time.Time `json:"last_active"`

	mu sync.RWMutex
}

// NewContext creates a fresh Context for the given session id.
func NewContext(sessionID string) *Context {
	return &Context{
		SessionID:  sessionID,
		LastActive: time.Now(),
	}
}

// ResetTurn zeroes the per-turn counters and the agent sequence. Called by
// the dispatch loop at the start of every user turn.
func (c *Context) ResetTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.HopCount = 0
	c.AgentSequence = nil
	c.TriageCallCount = 0
	c.CriticReturnCount = 0
}

// AddMessage appends a message to the history.
func (c *Context) AddMessage(role, content, sender string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, Message{Role: role, Content: content, Sender: sender})
}

// History returns a defensive copy of the full conversation history.
func (c *Context) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msgs := make([]Message, len(c.history))
	copy(msgs, c.history)
	return msgs
}

// LastMessage returns the most recent history entry, if any.
func (c *Context) LastMessage() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.history) == 0 {
		return Message{}, false
	}
	return c.history[len(c.history)-1], true
}

// AddFinding appends a finding. An existing key is not overwritten; the new
// entry is appended so the discovery order stays visible.
func (c *Context) AddFinding(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.findings = append(c.findings, Finding{Key: key, Value: value})
}

// Findings returns a defensive copy of the accumulated findings in
// discovery order.
func (c *Context) Findings() []Finding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fs := make([]Finding, len(c.findings))
	copy(fs, c.findings)
	return fs
}

// FindingValue returns the most recently recorded value for key.
func (c *Context) FindingValue(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.findings) - 1; i >= 0; i-- {
		if c.findings[i].Key == key {
			return c.findings[i].Value, true
		}
	}
	return "", false
}

// AddTask appends an outstanding task descriptor.
func (c *Context) AddTask(task string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingTasks = append(c.pendingTasks, task)
}

// CompleteTask removes the first pending task matching the descriptor and
// reports whether one was removed.
func (c *Context) CompleteTask(task string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.pendingTasks {
		if t == task {
			c.pendingTasks = append(c.pendingTasks[:i], c.pendingTasks[i+1:]...)
			return true
		}
	}
	return false
}

// PendingTasks returns a defensive copy of the outstanding tasks.
func (c *Context) PendingTasks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tasks := make([]string, len(c.pendingTasks))
	copy(tasks, c.pendingTasks)
	return tasks
}

// ApplyUpdate folds a handoff's context update into the Context: findings
// are appended, tasks added and completed in order.
func (c *Context) ApplyUpdate(u ContextUpdate) {
	for _, f := range u.Findings {
		c.AddFinding(f.Key, f.Value)
	}
	for _, t := range u.AddTasks {
		c.AddTask(t)
	}
	for _, t := range u.CompleteTasks {
		c.CompleteTask(t)
	}
}

// Touch refreshes the LastActive timestamp.
func (c *Context) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LastActive = now
}

// Clone returns a deep copy of the Context safe for independent mutation.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Context{
		SessionID:         c.SessionID,
		UserIntent:        c.UserIntent,
		findings:          make([]Finding, len(c.findings)),
		pendingTasks:      make([]string, len(c.pendingTasks)),
		history:           make([]Message, len(c.history)),
		HopCount:          c.HopCount,
		AgentSequence:     make([]string, len(c.AgentSequence)),
		TriageCallCount:   c.TriageCallCount,
		CriticReturnCount: c.CriticReturnCount,
		DataVersion:       c.DataVersion,
		LastActive:        c.LastActive,
	}
	copy(clone.findings, c.findings)
	copy(clone.pendingTasks, c.pendingTasks)
	copy(clone.history, c.history)
	copy(clone.AgentSequence, c.AgentSequence)
	return clone
}
