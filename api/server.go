package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/goalkick-live/backend/internal/elasticsearch"
	"github.com/goalkick-live/backend/internal/highlights"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/provider"
	"github.com/goalkick-live/backend/internal/query"
	"github.com/goalkick-live/backend/internal/ratelimit"
	"github.com/goalkick-live/backend/internal/validation"
)

const maxCommandBody = 64 << 10

type highlightsService interface {
	Highlights(ctx context.Context, filters models.Filters) models.HighlightsResponse
	LiveMatches(ctx context.Context) []models.LiveMatch
	ByCompetition(ctx context.Context, competition string, page, pageSize int) models.HighlightsResponse
	ByTeam(ctx context.Context, team string, page, pageSize int) models.HighlightsResponse
	FilterOptions(ctx context.Context) models.FilterOptions
	Featured(ctx context.Context, limit int) []models.Highlight
	Recent(ctx context.Context, limit int) []models.Highlight
	HighlightByID(ctx context.Context, id string) (models.Highlight, error)
}

type providerDirectory interface {
	Get(name models.Provider) (provider.Adapter, error)
	Info() []provider.Info
}

type archive interface {
	SearchHighlights(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type server struct {
	log         *slog.Logger
	highlights  highlightsService
	providers   providerDirectory
	archive     archive
	limiter     ratelimit.Limiter
	checks      map[string]func(context.Context) error
	corsOrigins []string
	timeout     time.Duration
}

type errorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/highlights", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(ratelimit.Middleware(s.limiter, ratelimit.BucketHighlights, s.log))
				r.Get("/", s.handleHighlights)
				r.Get("/filters", s.handleFilterOptions)
				r.Get("/featured", s.handleFeatured)
				r.Get("/recent", s.handleRecent)
				r.Get("/live", s.handleLive)
				r.Get("/competitions/{competition}", s.handleByCompetition)
				r.Get("/teams/{team}", s.handleByTeam)
			})
			r.With(ratelimit.Middleware(s.limiter, ratelimit.BucketGeneral, s.log)).Get("/archive", s.handleArchive)
		})

		r.With(ratelimit.Middleware(s.limiter, ratelimit.BucketVideo, s.log)).Get("/videos/{id}", s.handleVideo)

		r.Route("/providers/highlights", func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.limiter, ratelimit.BucketGeneral, s.log))
			r.Get("/", s.handleProviderHighlights)
			r.Post("/", s.handleProviderCommand)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.log.Warn("health check failed", slog.String("check", name), slog.Any("err", err))
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	label := "ok"
	if status != http.StatusOK {
		label = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": label, "checks": results})
}

func (s *server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	filters, ok := s.parseFilters(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.highlights.Highlights(r.Context(), filters))
}

func (s *server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.highlights.FilterOptions(r.Context()))
}

func (s *server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	limit, err := validation.ParseLimit(r.URL.Query())
	if err != nil {
		s.writeValidationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"highlights": s.highlights.Featured(r.Context(), limit)})
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := validation.ParseLimit(r.URL.Query())
	if err != nil {
		s.writeValidationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"highlights": s.highlights.Recent(r.Context(), limit)})
}

func (s *server) handleLive(w http.ResponseWriter, r *http.Request) {
	matches := s.highlights.LiveMatches(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches, "count": len(matches)})
}

func (s *server) handleByCompetition(w http.ResponseWriter, r *http.Request) {
	page, size, err := validation.ParsePaging(r.URL.Query())
	if err != nil {
		s.writeValidationError(w, err)
		return
	}
	competition := strings.TrimSpace(chi.URLParam(r, "competition"))
	writeJSON(w, http.StatusOK, s.highlights.ByCompetition(r.Context(), competition, page, size))
}

func (s *server) handleByTeam(w http.ResponseWriter, r *http.Request) {
	page, size, err := validation.ParsePaging(r.URL.Query())
	if err != nil {
		s.writeValidationError(w, err)
		return
	}
	team := strings.TrimSpace(chi.URLParam(r, "team"))
	writeJSON(w, http.StatusOK, s.highlights.ByTeam(r.Context(), team, page, size))
}

func (s *server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Archive is not available"})
		return
	}

	values := r.URL.Query()
	if q := values.Get("q"); q != "" && values.Get("search") == "" {
		values.Set("search", q)
	}
	filters, err := validation.ParseFilters(values)
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	from, size, err := validation.ParseWindow(values)
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	params := elasticsearch.SearchParams{
		Query:       filters.Search,
		Competition: filters.Competition,
		Team:        filters.Team,
		Provider:    filters.Provider,
		Keywords:    keywords(values.Get("keywords")),
		From:        from,
		Size:        size,
		Sort:        strings.TrimSpace(values.Get("sort")),
		Start:       filters.DateFrom,
		End:         endOfDay(filters.DateTo),
	}
	if filters.Date != nil {
		params.Start, params.End = filters.Date, endOfDay(filters.Date)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := s.archive.SearchHighlights(ctx, params)
	if err != nil {
		s.log.Error("archive search failed", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Archive search failed"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleVideo(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	h, err := s.highlights.HighlightByID(r.Context(), id)
	if errors.Is(err, highlights.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Highlight not found"})
		return
	}
	if errors.Is(err, highlights.ErrUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Highlights are temporarily unavailable"})
		return
	}
	if err != nil {
		s.writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *server) handleProviderHighlights(w http.ResponseWriter, r *http.Request) {
	filters, ok := s.parseFilters(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":      s.highlights.Highlights(r.Context(), filters),
		"providers": s.providers.Info(),
	})
}

func (s *server) handleProviderCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Unable to read request body"})
		return
	}

	cmd, err := validation.ParseProviderCommand(body)
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	adapter, err := s.providers.Get(cmd.Provider)
	if errors.Is(err, provider.ErrUnknownProvider) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Provider not enabled: " + string(cmd.Provider)})
		return
	}
	if err != nil {
		s.writeInternalError(w, err)
		return
	}

	data, err := runCommand(r.Context(), adapter, cmd)
	if err != nil {
		s.log.Error("provider command failed",
			slog.String("provider", string(cmd.Provider)),
			slog.String("action", cmd.Action),
			slog.Any("err", err),
		)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Provider request failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provider": cmd.Provider,
		"action":   cmd.Action,
		"data":     data,
	})
}

func runCommand(ctx context.Context, a provider.Adapter, cmd validation.ProviderCommand) (any, error) {
	switch cmd.Action {
	case validation.ActionHighlights:
		items, err := a.Highlights(ctx, cmd.Parameters)
		if err != nil {
			return nil, err
		}
		items = query.Filter(items, cmd.Parameters)
		query.SortByDate(items)
		return query.Response(items, cmd.Parameters.Page, cmd.Parameters.PageSize), nil
	case validation.ActionLiveMatches:
		return a.LiveMatches(ctx)
	case validation.ActionCompetitions:
		return a.Competitions(ctx)
	case validation.ActionTeams:
		return a.Teams(ctx)
	}
	return nil, errors.New("unsupported action " + cmd.Action)
}

func (s *server) parseFilters(w http.ResponseWriter, r *http.Request) (models.Filters, bool) {
	filters, err := validation.ParseFilters(r.URL.Query())
	if err != nil {
		s.writeValidationError(w, err)
		return models.Filters{}, false
	}
	return filters, true
}

func (s *server) writeValidationError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid parameters", Details: verr.Details})
		return
	}
	s.writeInternalError(w, err)
}

func (s *server) writeInternalError(w http.ResponseWriter, err error) {
	s.log.Error("request failed", slog.Any("err", err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

func keywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func endOfDay(day *time.Time) *time.Time {
	if day == nil {
		return nil
	}
	end := day.UTC().Add(24*time.Hour - time.Nanosecond)
	return &end
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
