package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	key string
	ts  time.Time
}

type item struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Memory keeps a fixed number of entries, each valid until its TTL elapses.
// When full, the oldest write is evicted first.
type Memory struct {
	mu       sync.Mutex
	items    map[string]item
	order    []entry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewMemory creates a store holding at most capacity entries. ttl is used when
// Set is called with a non-positive ttl.
func NewMemory(capacity int, ttl time.Duration) *Memory {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Memory{
		items:    make(map[string]item, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

var _ Store = (*Memory)(nil)

// Get returns the value stored under key if it has not expired.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || !now.Before(it.expiresAt) {
		return nil, false, nil
	}
	return it.value, true, nil
}

// Set stores value under key for ttl.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	c.order = append(c.order, entry{key: key, ts: now})
	c.compact(now)
	return nil
}

// Delete removes key if present.
func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear drops every entry.
func (c *Memory) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]item, c.capacity)
	c.order = c.order[:0]
}

// Len reports the number of entries currently held, expired or not.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// IsSeen reports whether key was marked inside the default ttl window.
func (c *Memory) IsSeen(key string) bool {
	_, ok, _ := c.Get(context.Background(), key)
	return ok
}

// MarkSeen records key for the default ttl.
func (c *Memory) MarkSeen(key string) {
	_ = c.Set(context.Background(), key, nil, c.ttl)
}

func (c *Memory) compact(now time.Time) {
	for len(c.order) > 0 {
		oldest := c.order[0]
		it, live := c.items[oldest.key]
		stale := !live || !it.storedAt.Equal(oldest.ts)

		if !stale && len(c.items) <= c.capacity && now.Before(it.expiresAt) {
			return
		}

		c.order = c.order[1:]
		if !stale {
			delete(c.items, oldest.key)
		}
	}
}
