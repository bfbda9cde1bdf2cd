package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local sliding-window limiter.
type Memory struct {
	rules Rules
	now   func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

var _ Limiter = (*Memory)(nil)

// NewMemory creates an in-process limiter. A nil now uses time.Now.
func NewMemory(rules Rules, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{rules: rules, now: now, hits: make(map[string][]time.Time)}
}

// Check never fails. Buckets without a rule are not limited.
func (m *Memory) Check(_ context.Context, clientID string, bucket Bucket) (Result, error) {
	rule, ok := m.rules[bucket]
	if !ok || rule.Limit <= 0 {
		return Result{Allowed: true}, nil
	}

	now := m.now()
	cutoff := now.Add(-rule.Window)
	k := key(bucket, clientID)

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := m.hits[k]
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	hits = hits[i:]

	if len(hits) >= rule.Limit {
		m.hits[k] = hits
		return Result{Limit: rule.Limit, ResetAt: hits[0].Add(rule.Window)}, nil
	}

	hits = append(hits, now)
	m.hits[k] = hits
	return Result{
		Allowed:   true,
		Limit:     rule.Limit,
		Remaining: rule.Limit - len(hits),
		ResetAt:   hits[0].Add(rule.Window),
	}, nil
}

// Prune drops clients with no requests inside the longest window.
func (m *Memory) Prune() {
	var window time.Duration
	for _, rule := range m.rules {
		window = max(window, rule.Window)
	}
	cutoff := m.now().Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, hits := range m.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(m.hits, k)
		}
	}
}

// Len reports how many client/bucket pairs are tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}
