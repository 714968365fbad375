package service

import (
	"container/list"
	"sync"
	"time"

	"github.com/casadoar/payrecon/internal/domain"
)

const (
	DefaultDedupCapacity = 100
	DefaultDedupTTL      = 5 * time.Minute
)

type dedupEntry struct {
	key    string
	seenAt time.Time
}

// Deduplicator remembers recently seen (resource, state) pairs so provider
// redeliveries can be dropped before touching the store. It is a best-effort
// filter: losing entries to eviction or a restart only costs extra store
// reads, never correctness.
//
// Entries are kept in insertion order; the oldest is evicted once capacity is
// reached, and any entry older than the TTL counts as absent.
type Deduplicator struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	entries  map[string]*list.Element
	Now      func() time.Time
}

func NewDeduplicator(capacity int, ttl time.Duration) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduplicator{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		Now:      time.Now,
	}
}

func dedupKey(resourceID string, state domain.State) string {
	return resourceID + "\x00" + string(state)
}

// ShouldProcess returns false if the pair was seen within the TTL. Otherwise
// it records the pair and returns true.
func (d *Deduplicator) ShouldProcess(resourceID string, state domain.State) bool {
	key := dedupKey(resourceID, state)
	now := d.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.entries[key]; ok {
		if d.fresh(el, now) {
			return false
		}
		d.removeLocked(el)
	}

	d.pruneExpiredLocked(now)
	for d.order.Len() >= d.capacity {
		d.removeLocked(d.order.Front())
	}

	d.entries[key] = d.order.PushBack(&dedupEntry{key: key, seenAt: now})
	return true
}

// Forget drops a pair so the next delivery of it is processed again.
func (d *Deduplicator) Forget(resourceID string, state domain.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.entries[dedupKey(resourceID, state)]; ok {
		d.removeLocked(el)
	}
}

// PurgeExpired removes entries older than the TTL and returns how many were dropped.
func (d *Deduplicator) PurgeExpired() int {
	now := d.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pruneExpiredLocked(now)
}

func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}

func (d *Deduplicator) Capacity() int {
	return d.capacity
}

func (d *Deduplicator) fresh(el *list.Element, now time.Time) bool {
	return now.Sub(el.Value.(*dedupEntry).seenAt) < d.ttl
}

// pruneExpiredLocked walks from the oldest entry and stops at the first
// fresh one, since the list is ordered by seenAt.
func (d *Deduplicator) pruneExpiredLocked(now time.Time) int {
	pruned := 0
	for el := d.order.Front(); el != nil; el = d.order.Front() {
		if d.fresh(el, now) {
			break
		}
		d.removeLocked(el)
		pruned++
	}
	return pruned
}

func (d *Deduplicator) removeLocked(el *list.Element) {
	delete(d.entries, el.Value.(*dedupEntry).key)
	d.order.Remove(el)
}
