package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a mutable clock for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestManager_ResolveCreatesFreshSession(t *testing.T) {
	m := NewManager()

	ctx, id := m.Resolve("")
	require.NotNil(t, ctx)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, ctx.SessionID)
	assert.Equal(t, 1, m.Len())
}

func TestManager_ResolveIsIdempotentForLiveSession(t *testing.T) {
	m := NewManager()

	ctx1, id := m.Resolve("")
	ctx1.UserIntent = "sleep better"

	ctx2, id2 := m.Resolve(id)
	assert.Equal(t, id, id2)
	assert.Same(t, ctx1, ctx2)
	assert.Equal(t, "sleep better", ctx2.UserIntent)
}

func TestManager_UnknownIDGetsFreshID(t *testing.T) {
	m := NewManager()

	ctx, id := m.Resolve("never-issued")
	assert.NotEqual(t, "never-issued", id)
	assert.Equal(t, id, ctx.SessionID)
}

func TestManager_ExpiryIsLazyAndFinal(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(func(o *Options) {
		o.TTL = 60 * time.Minute
		o.Now = clock.Now
	})

	_, id := m.Resolve("")

	// Just inside the TTL the session survives.
	clock.Advance(59 * time.Minute)
	_, id2 := m.Resolve(id)
	assert.Equal(t, id, id2)

	// Idle past the TTL: the old id is gone for good.
	clock.Advance(61 * time.Minute)
	ctx3, id3 := m.Resolve(id)
	assert.NotEqual(t, id, id3)
	assert.Empty(t, ctx3.History())

	// Even resolving the expired id again never resurrects it.
	_, id4 := m.Resolve(id)
	assert.NotEqual(t, id, id4)
}

func TestManager_ActivityRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(func(o *Options) {
		o.TTL = 60 * time.Minute
		o.Now = clock.Now
	})

	_, id := m.Resolve("")
	for i := 0; i < 3; i++ {
		clock.Advance(45 * time.Minute)
		_, got := m.Resolve(id)
		require.Equal(t, id, got)
	}
}

func TestManager_ExpireIdleSweep(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(func(o *Options) {
		o.TTL = time.Minute
		o.Now = clock.Now
	})

	m.Resolve("")
	m.Resolve("")
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 2, m.ExpireIdle(clock.Now()))
	assert.Equal(t, 0, m.Len())
}

func TestManager_Delete(t *testing.T) {
	m := NewManager()
	_, id := m.Resolve("")
	m.Delete(id)
	assert.Equal(t, 0, m.Len())
}

func TestManager_LockTurnSerializesWithinSession(t *testing.T) {
	m := NewManager()
	_, id := m.Resolve("")

	var mu sync.Mutex
	var order []int

	unlock := m.LockTurn(id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		u := m.LockTurn(id)
		defer u()
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	}()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, 1)
	mu.Unlock()
	unlock()

	<-done
	assert.Equal(t, []int{1, 2}, order)
}

func TestManager_PersistUpdatesLastActive(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(func(o *Options) { o.Now = clock.Now })

	ctx, _ := m.Resolve("")
	clock.Advance(10 * time.Minute)
	m.Persist(ctx)
	assert.Equal(t, clock.Now(), ctx.LastActive)
}
