package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestDeduplicator_SuppressesRepeat(t *testing.T) {
	d := NewDeduplicator(10, time.Minute)

	assert.True(t, d.ShouldProcess("r1", domain.StateConfirmed))
	assert.False(t, d.ShouldProcess("r1", domain.StateConfirmed))
	assert.True(t, d.ShouldProcess("r1", domain.StateFailed), "different state is a different pair")
	assert.True(t, d.ShouldProcess("r2", domain.StateConfirmed))
	assert.Equal(t, 3, d.Len())
}

func TestDeduplicator_EvictsOldestAtCapacity(t *testing.T) {
	d := NewDeduplicator(100, time.Hour)

	for i := 0; i < 101; i++ {
		assert.True(t, d.ShouldProcess(fmt.Sprintf("r%d", i), domain.StateConfirmed))
	}
	assert.Equal(t, 100, d.Len())

	// r0 was evicted, so it is new again; r100 is still remembered.
	assert.True(t, d.ShouldProcess("r0", domain.StateConfirmed))
	assert.False(t, d.ShouldProcess("r100", domain.StateConfirmed))
}

func TestDeduplicator_EntriesExpireUnderCapacity(t *testing.T) {
	clock := newFakeClock()
	d := NewDeduplicator(100, 5*time.Minute)
	d.Now = clock.Now

	assert.True(t, d.ShouldProcess("r1", domain.StateConfirmed))
	clock.Advance(4 * time.Minute)
	assert.False(t, d.ShouldProcess("r1", domain.StateConfirmed))

	clock.Advance(time.Minute)
	assert.True(t, d.ShouldProcess("r1", domain.StateConfirmed), "entry at exactly the TTL is expired")
	assert.Equal(t, 1, d.Len())
}

func TestDeduplicator_PurgeExpired(t *testing.T) {
	clock := newFakeClock()
	d := NewDeduplicator(100, time.Minute)
	d.Now = clock.Now

	d.ShouldProcess("old-1", domain.StateConfirmed)
	d.ShouldProcess("old-2", domain.StateFailed)
	clock.Advance(30 * time.Second)
	d.ShouldProcess("new", domain.StateConfirmed)
	clock.Advance(45 * time.Second)

	assert.Equal(t, 2, d.PurgeExpired())
	assert.Equal(t, 1, d.Len())
	assert.False(t, d.ShouldProcess("new", domain.StateConfirmed))
}

func TestDeduplicator_Forget(t *testing.T) {
	d := NewDeduplicator(10, time.Minute)

	d.ShouldProcess("r1", domain.StateConfirmed)
	d.Forget("r1", domain.StateConfirmed)
	d.Forget("unknown", domain.StatePending)

	assert.True(t, d.ShouldProcess("r1", domain.StateConfirmed))
}

func TestDeduplicator_Defaults(t *testing.T) {
	d := NewDeduplicator(0, 0)
	assert.Equal(t, DefaultDedupCapacity, d.Capacity())
	assert.Equal(t, DefaultDedupTTL, d.ttl)
}

func TestDeduplicator_ConcurrentSamePair(t *testing.T) {
	d := NewDeduplicator(100, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.ShouldProcess("r1", domain.StateConfirmed) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
}
