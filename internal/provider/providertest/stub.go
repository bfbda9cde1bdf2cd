// Package providertest provides an in-memory adapter for tests.
package providertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goalkick-live/backend/internal/models"
)

// Stub is a scripted adapter that counts how often each method is called.
type Stub struct {
	ProviderName models.Provider
	Items        []models.Highlight
	Live         []models.LiveMatch
	Err          error
	// Block makes calls wait until the context is done.
	Block bool

	highlightCalls atomic.Int32
	liveCalls      atomic.Int32

	mu sync.Mutex
}

// New returns a stub serving items under the given provider name.
func New(name models.Provider, items ...models.Highlight) *Stub {
	return &Stub{ProviderName: name, Items: items}
}

func (s *Stub) Name() models.Provider { return s.ProviderName }

func (s *Stub) Highlights(ctx context.Context, _ models.Filters) ([]models.Highlight, error) {
	s.highlightCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]models.Highlight(nil), s.Items...), nil
}

func (s *Stub) LiveMatches(ctx context.Context) ([]models.LiveMatch, error) {
	s.liveCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]models.LiveMatch(nil), s.Live...), nil
}

func (s *Stub) Competitions(ctx context.Context) ([]string, error) {
	items, err := s.Highlights(ctx, models.Filters{})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, h := range items {
		out = append(out, h.Competition)
	}
	return out, nil
}

func (s *Stub) Teams(ctx context.Context) ([]string, error) {
	items, err := s.Highlights(ctx, models.Filters{})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, h := range items {
		out = append(out, h.Teams.Home, h.Teams.Away)
	}
	return out, nil
}

// SetItems swaps the served highlights.
func (s *Stub) SetItems(items ...models.Highlight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Items = items
}

// HighlightCalls reports how many times Highlights was invoked.
func (s *Stub) HighlightCalls() int { return int(s.highlightCalls.Load()) }

// LiveCalls reports how many times LiveMatches was invoked.
func (s *Stub) LiveCalls() int { return int(s.liveCalls.Load()) }

func (s *Stub) wait(ctx context.Context) error {
	if s.Block {
		<-ctx.Done()
	}
	return ctx.Err()
}
