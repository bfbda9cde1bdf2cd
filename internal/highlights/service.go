// Package highlights is the read facade used by the HTTP layer. Every query is
// cached in-process and bounded by a timeout that degrades to an empty result.
package highlights

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goalkick-live/backend/internal/aggregator"
	"github.com/goalkick-live/backend/internal/cache"
	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/processing"
	"github.com/goalkick-live/backend/internal/provider"
	"github.com/goalkick-live/backend/internal/query"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultLiveTTL  = time.Minute
	DefaultTimeout  = 10 * time.Second
	DefaultCapacity = 1000
	DefaultLimit    = 6

	recentWindow = 7 * 24 * time.Hour
)

var (
	// ErrNotFound is returned when a highlight id is not in the current result set.
	ErrNotFound = errors.New("highlight not found")
	// ErrUnavailable is returned when the result set could not be loaded in time.
	ErrUnavailable = errors.New("highlights unavailable")
)

// Aggregator is the subset of the aggregation service the facade relies on.
type Aggregator interface {
	Highlights(ctx context.Context, filters models.Filters) models.HighlightsResponse
	All(ctx context.Context, filters models.Filters) []models.Highlight
}

// Service answers highlight queries for the API.
type Service struct {
	agg     Aggregator
	source  aggregator.Source
	cache   *cache.Memory
	ttl     time.Duration
	liveTTL time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
}

// Option customises a Service.
type Option func(*Service)

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLiveTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.liveTTL = ttl
		}
	}
}

// WithTimeout bounds every facade call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCapacity bounds the number of cached facade results.
func WithCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.cache = cache.NewMemory(n, s.ttl)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates the facade over an aggregation service and the adapter source used
// for live matches, competitions and teams.
func New(agg Aggregator, source aggregator.Source, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		agg:     agg,
		source:  source,
		ttl:     DefaultTTL,
		liveTTL: DefaultLiveTTL,
		timeout: DefaultTimeout,
		now:     time.Now,
		log:     logger.OrDiscard(log),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory(DefaultCapacity, s.ttl)
	}
	return s
}

// Highlights returns one page of aggregated highlights.
func (s *Service) Highlights(ctx context.Context, filters models.Filters) models.HighlightsResponse {
	page, size := query.Normalize(filters.Page, filters.PageSize)
	key := "highlights:" + aggregator.CacheKey(filters) + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(size)

	return cached(ctx, s, key, s.ttl, query.Response(nil, page, size), func(ctx context.Context) models.HighlightsResponse {
		return s.agg.Highlights(ctx, filters)
	})
}

// ByCompetition returns highlights whose competition matches the given slug or name.
func (s *Service) ByCompetition(ctx context.Context, competition string, page, pageSize int) models.HighlightsResponse {
	return s.Highlights(ctx, models.Filters{Competition: competition, Page: page, PageSize: pageSize})
}

// ByTeam returns highlights where team played home or away.
func (s *Service) ByTeam(ctx context.Context, team string, page, pageSize int) models.HighlightsResponse {
	return s.Highlights(ctx, models.Filters{Team: team, Page: page, PageSize: pageSize})
}

// LiveMatches merges the live matches of every adapter.
func (s *Service) LiveMatches(ctx context.Context) []models.LiveMatch {
	return cached(ctx, s, "live", s.liveTTL, []models.LiveMatch{}, func(ctx context.Context) []models.LiveMatch {
		out := []models.LiveMatch{}
		for _, a := range s.source.Adapters() {
			matches, err := a.LiveMatches(ctx)
			if err != nil {
				s.log.Error("provider live matches failed", slog.String("provider", string(a.Name())), slog.Any("err", err))
				continue
			}
			out = append(out, matches...)
		}
		return out
	})
}

// Competitions lists the distinct competitions reported by the adapters.
func (s *Service) Competitions(ctx context.Context) []string {
	return cached(ctx, s, "competitions", s.ttl, []string{}, func(ctx context.Context) []string {
		return s.collect(ctx, "competitions", provider.Adapter.Competitions)
	})
}

// Teams lists the distinct team names reported by the adapters.
func (s *Service) Teams(ctx context.Context) []string {
	return cached(ctx, s, "teams", s.ttl, []string{}, func(ctx context.Context) []string {
		return s.collect(ctx, "teams", provider.Adapter.Teams)
	})
}

func (s *Service) collect(ctx context.Context, what string, call func(provider.Adapter, context.Context) ([]string, error)) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, a := range s.source.Adapters() {
		values, err := call(a, ctx)
		if err != nil {
			s.log.Error("provider lookup failed",
				slog.String("provider", string(a.Name())),
				slog.String("lookup", what),
				slog.Any("err", err),
			)
			continue
		}
		for _, v := range values {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// FilterOptions derives the available filter values from the current result set.
func (s *Service) FilterOptions(ctx context.Context) models.FilterOptions {
	empty := models.FilterOptions{
		Competitions: []models.FilterOption{},
		Teams:        []models.FilterOption{},
		Providers:    []models.ProviderCount{},
	}

	return cached(ctx, s, "filter-options", s.ttl, empty, func(ctx context.Context) models.FilterOptions {
		items := s.agg.All(ctx, models.Filters{})
		opts := empty

		comps := make(map[string]models.FilterOption)
		teams := make(map[string]models.FilterOption)
		for _, h := range items {
			country, name := processing.SplitCompetition(h.Competition)
			if slug := processing.Slugify(name); slug != "" {
				if _, ok := comps[slug]; !ok {
					comps[slug] = models.FilterOption{Value: slug, Label: name, Country: country}
				}
			}
			for _, team := range []string{h.Teams.Home, h.Teams.Away} {
				if slug := processing.Slugify(team); slug != "" {
					if _, ok := teams[slug]; !ok {
						teams[slug] = models.FilterOption{Value: slug, Label: team}
					}
				}
			}

			d := h.MatchDate
			if opts.DateRange.Min == nil || d.Before(*opts.DateRange.Min) {
				opts.DateRange.Min = &d
			}
			if opts.DateRange.Max == nil || d.After(*opts.DateRange.Max) {
				opts.DateRange.Max = &d
			}
		}

		opts.Competitions = sortedOptions(comps)
		opts.Teams = sortedOptions(teams)

		counts := query.CountByProvider(items)
		opts.Providers = []models.ProviderCount{}
		for _, a := range s.source.Adapters() {
			opts.Providers = append(opts.Providers, models.ProviderCount{
				ID:    a.Name(),
				Name:  provider.DisplayName(a.Name()),
				Count: counts[a.Name()],
			})
		}
		return opts
	})
}

// Featured returns the most watched highlights by views plus likes.
func (s *Service) Featured(ctx context.Context, limit int) []models.Highlight {
	limit = normalizeLimit(limit)
	key := "featured:" + strconv.Itoa(limit)

	return cached(ctx, s, key, s.ttl, []models.Highlight{}, func(ctx context.Context) []models.Highlight {
		items := append([]models.Highlight(nil), s.agg.All(ctx, models.Filters{})...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Views+items[i].Likes > items[j].Views+items[j].Likes
		})
		return head(items, limit)
	})
}

// Recent returns the newest highlights from the last seven days.
func (s *Service) Recent(ctx context.Context, limit int) []models.Highlight {
	limit = normalizeLimit(limit)
	key := "recent:" + strconv.Itoa(limit)

	return cached(ctx, s, key, s.ttl, []models.Highlight{}, func(ctx context.Context) []models.Highlight {
		cutoff := s.now().Add(-recentWindow)
		var items []models.Highlight
		for _, h := range s.agg.All(ctx, models.Filters{}) {
			if !h.MatchDate.Before(cutoff) {
				items = append(items, h)
			}
		}
		query.SortByDate(items)
		return head(items, limit)
	})
}

// HighlightByID looks a highlight up in the current aggregated set.
func (s *Service) HighlightByID(ctx context.Context, id string) (models.Highlight, error) {
	items, ok := bounded(ctx, s, "video:"+id, []models.Highlight(nil), func(ctx context.Context) []models.Highlight {
		return s.agg.All(ctx, models.Filters{})
	})
	for _, h := range items {
		if h.ID == id {
			return h, nil
		}
	}
	if !ok {
		return models.Highlight{}, ErrUnavailable
	}
	return models.Highlight{}, ErrNotFound
}

// ClearCache drops every cached facade result.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// cached serves key from the facade cache or computes it under the facade timeout.
// A computation that times out or panics yields empty and is not cached.
func cached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, empty T, compute func(context.Context) T) T {
	if raw, ok, _ := s.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
		s.log.Warn("facade cache entry corrupt", slog.String("key", key))
	}

	v, ok := bounded(ctx, s, key, empty, compute)
	if !ok {
		return v
	}
	if raw, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, raw, ttl)
	}
	return v
}

type outcome[T any] struct {
	value T
	ok    bool
}

// bounded runs compute under the facade timeout. ok is false when the call
// timed out, ran past its deadline or panicked.
func bounded[T any](ctx context.Context, s *Service, key string, empty T, compute func(context.Context) T) (T, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("facade call panicked", slog.String("key", key), slog.Any("panic", r))
				done <- outcome[T]{value: empty}
			}
		}()
		done <- outcome[T]{value: compute(ctx), ok: true}
	}()

	select {
	case res := <-done:
		return res.value, res.ok && ctx.Err() == nil
	case <-ctx.Done():
		s.log.Warn("facade call timed out", slog.String("key", key), slog.Duration("timeout", s.timeout))
		return empty, false
	}
}

func sortedOptions(m map[string]models.FilterOption) []models.FilterOption {
	out := make([]models.FilterOption, 0, len(m))
	for _, opt := range m {
		out = append(out, opt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func head(items []models.Highlight, n int) []models.Highlight {
	if len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []models.Highlight{}
	}
	return items
}
