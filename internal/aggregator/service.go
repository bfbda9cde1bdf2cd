// Package aggregator merges highlights from every enabled provider into one
// filtered, deduplicated and cached result set.
package aggregator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/goalkick-live/backend/internal/cache"
	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/provider"
	"github.com/goalkick-live/backend/internal/query"
)

const (
	DefaultTTL = 300 * time.Second
	keyPrefix  = "highlights"
)

// Source yields the adapters to query. *provider.Registry satisfies it.
type Source interface {
	Adapters() []provider.Adapter
}

// Publisher receives every freshly fetched batch of highlights.
type Publisher interface {
	PublishHighlights(ctx context.Context, items []models.Highlight) error
}

// Service is the unified highlights aggregation service.
type Service struct {
	source    Source
	store     cache.Store
	ttl       time.Duration
	publisher Publisher
	log       *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithTTL sets how long an aggregated result stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPublisher forwards fetched highlights to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New creates a Service reading adapters from source and caching in store.
func New(source Source, store cache.Store, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		source: source,
		store:  store,
		ttl:    DefaultTTL,
		log:    logger.OrDiscard(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Highlights returns one page of the aggregated result. Provider and cache
// failures degrade the result instead of failing the call.
func (s *Service) Highlights(ctx context.Context, filters models.Filters) models.HighlightsResponse {
	return query.Response(s.All(ctx, filters), filters.Page, filters.PageSize)
}

// All returns the complete filtered, deduplicated and date-sorted result set.
func (s *Service) All(ctx context.Context, filters models.Filters) []models.Highlight {
	key := CacheKey(filters)

	if items, ok := s.cached(ctx, key); ok {
		return items
	}

	fetched, complete := s.fetch(ctx, filters)

	items := query.Dedupe(query.Filter(fetched, filters))
	query.SortByDate(items)

	if complete {
		s.save(ctx, key, items)
	}
	if len(fetched) > 0 && s.publisher != nil {
		if err := s.publisher.PublishHighlights(ctx, fetched); err != nil {
			s.log.Warn("publish highlights failed", slog.Int("count", len(fetched)), slog.Any("err", err))
		}
	}
	return items
}

// fetch queries every adapter in turn. complete is false when the context ended
// before all adapters were asked or when every adapter failed.
func (s *Service) fetch(ctx context.Context, filters models.Filters) ([]models.Highlight, bool) {
	var out []models.Highlight
	adapters := s.source.Adapters()
	failed := 0
	for _, a := range adapters {
		if ctx.Err() != nil {
			s.log.Warn("aggregation interrupted", slog.Any("err", ctx.Err()))
			return out, false
		}

		items, err := a.Highlights(ctx, filters)
		if err != nil {
			s.log.Error("provider highlights failed",
				slog.String("provider", string(a.Name())),
				slog.Any("err", err),
			)
			failed++
			continue
		}
		s.log.Debug("provider highlights fetched",
			slog.String("provider", string(a.Name())),
			slog.Int("count", len(items)),
		)
		out = append(out, items...)
	}
	if len(adapters) > 0 && failed == len(adapters) {
		return out, false
	}
	return out, ctx.Err() == nil
}

func (s *Service) cached(ctx context.Context, key string) ([]models.Highlight, bool) {
	if s.store == nil {
		return nil, false
	}

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("key", key), slog.Any("err", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var items []models.Highlight
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("cache entry corrupt", slog.String("key", key), slog.Any("err", err))
		return nil, false
	}
	return items, true
}

func (s *Service) save(ctx context.Context, key string, items []models.Highlight) {
	if s.store == nil {
		return
	}

	raw, err := json.Marshal(items)
	if err != nil {
		s.log.Warn("cache encode failed", slog.String("key", key), slog.Any("err", err))
		return
	}
	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		s.log.Warn("cache write failed", slog.String("key", key), slog.Any("err", err))
	}
}

// CacheKey encodes every filter except pagination into a stable key.
func CacheKey(f models.Filters) string {
	v := url.Values{}
	v.Set("competition", strings.ToLower(f.Competition))
	v.Set("team", strings.ToLower(f.Team))
	v.Set("search", strings.ToLower(f.Search))
	if f.Provider != models.ProviderAll {
		v.Set("provider", string(f.Provider))
	}
	if f.Date != nil {
		v.Set("date", f.Date.UTC().Format(time.DateOnly))
	}
	if f.DateFrom != nil {
		v.Set("dateFrom", f.DateFrom.UTC().Format(time.DateOnly))
	}
	if f.DateTo != nil {
		v.Set("dateTo", f.DateTo.UTC().Format(time.DateOnly))
	}
	return cache.Key(keyPrefix, v)
}
