package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/healthmesh/core"
	"github.com/hupe1980/healthmesh/logging"
)

// DefaultTTL is how long an idle session survives before it is expired.
const DefaultTTL = 60 * time.Minute

// Options holds configuration overrides passed to NewManager.
type Options struct {
	// TTL is the idle timeout after which a session expires.
	TTL time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Logger receives expiry and lifecycle messages.
	Logger logging.Logger
}

// Manager owns the Context instances keyed by session id. Expiry is
// evaluated lazily on every Resolve call rather than on a background timer:
// an idle entry is never evicted before anyone next asks, but its lookup
// nonetheless appears as a miss to the caller.
//
// Manager is safe for concurrent use across sessions. Turns within one
// session are serialized through LockTurn.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*core.Context
	turnLocks map[string]*sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	logger    logging.Logger
}

// NewManager constructs a Manager with optional overrides.
func NewManager(optFns ...func(o *Options)) *Manager {
	opts := Options{
		TTL:    DefaultTTL,
		Now:    time.Now,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		sessions:  make(map[string]*core.Context),
		turnLocks: make(map[string]*sync.Mutex),
		ttl:       opts.TTL,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// Resolve returns the Context for sessionID, refreshing its LastActive
// timestamp. An absent, unknown or expired id yields a freshly allocated
// unique id and a fresh Context; expired ids are never resurrected, so
// SessionExpired and SessionNotFound are indistinguishable to the caller.
func (m *Manager) Resolve(sessionID string) (*core.Context, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.expireIdleLocked(now)

	if sessionID != "" {
		if ctx, ok := m.sessions[sessionID]; ok {
			ctx.Touch(now)
			return ctx, sessionID
		}
	}

	id := uuid.NewString()
	ctx := core.NewContext(id)
	ctx.Touch(now)
	m.sessions[id] = ctx
	m.logger.Debug("session created session_id=%s", id)
	return ctx, id
}

// Persist stores the (possibly mutated) Context back under its id, updating
// LastActive.
func (m *Manager) Persist(ctx *core.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctx.Touch(m.now())
	m.sessions[ctx.SessionID] = ctx
}

// Delete removes a session, e.g. when the caller starts a new conversation.
func (m *Manager) Delete(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	delete(m.turnLocks, sessionID)
}

// ExpireIdle removes every Context idle longer than the TTL and returns how
// many were removed. Resolve calls this opportunistically; exposing it lets
// callers run an explicit sweep.
func (m *Manager) ExpireIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expireIdleLocked(now)
}

// expireIdleLocked must be called with m.mu held.
func (m *Manager) expireIdleLocked(now time.Time) int {
	var expired []string
	for id, ctx := range m.sessions {
		if now.Sub(ctx.LastActive) > m.ttl {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(m.sessions, id)
		delete(m.turnLocks, id)
		m.logger.Debug("session expired session_id=%s", id)
	}
	return len(expired)
}

// LockTurn acquires the per-session turn lock, serializing turns within one
// session while unrelated sessions proceed in parallel. The returned func
// releases the lock.
func (m *Manager) LockTurn(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.turnLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.turnLocks[sessionID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Len returns the number of live sessions without triggering expiry.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
