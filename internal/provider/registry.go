package provider

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goalkick-live/backend/internal/config"
	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/provider/scorebat"
	"github.com/goalkick-live/backend/internal/provider/supersport"
)

// Registry owns the set of enabled adapters. The set is built lazily on first use
// and can be rebuilt with Reload.
type Registry struct {
	cfg        config.Providers
	log        *slog.Logger
	httpClient *http.Client
	now        func() time.Time
	fixed      []Adapter

	mu          sync.RWMutex
	initialized bool
	adapters    []Adapter
}

// Option customises a Registry.
type Option func(*Registry)

// WithHTTPClient sets the client used by HTTP-backed adapters.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.httpClient = c }
}

// WithClock overrides the time source handed to adapters.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithAdapters replaces configuration-driven construction with a fixed adapter list.
func WithAdapters(adapters ...Adapter) Option {
	return func(r *Registry) { r.fixed = adapters }
}

// NewRegistry creates a registry for the given provider configuration.
func NewRegistry(cfg config.Providers, log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		cfg: cfg,
		log: logger.OrDiscard(log),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.httpClient == nil {
		timeout := cfg.ScorebatTimeout
		if timeout <= 0 {
			timeout = 8 * time.Second
		}
		r.httpClient = &http.Client{Timeout: timeout}
	}
	return r
}

// Initialize builds the adapter set once. Later calls are no-ops until Reload or Clear.
func (r *Registry) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return
	}
	r.adapters = r.build()
	r.initialized = true
}

func (r *Registry) build() []Adapter {
	if r.fixed != nil {
		return append([]Adapter(nil), r.fixed...)
	}

	var out []Adapter
	if r.cfg.SupersportEnabled {
		out = append(out, supersport.New(supersport.WithClock(r.now)))
		r.log.Info("provider enabled", slog.String("provider", string(models.ProviderMock)))
	}

	if r.cfg.ScorebatEnabled {
		if r.cfg.ScorebatToken == "" {
			r.log.Warn("scorebat enabled without SCOREBAT_API_TOKEN, skipping",
				slog.String("provider", string(models.ProviderREST)))
		} else {
			out = append(out, scorebat.New(scorebat.Config{
				BaseURL: r.cfg.ScorebatBaseURL,
				Token:   r.cfg.ScorebatToken,
			}, scorebat.WithHTTPClient(r.httpClient), scorebat.WithClock(r.now), scorebat.WithLogger(r.log)))
			r.log.Info("provider enabled", slog.String("provider", string(models.ProviderREST)))
		}
	}

	if len(out) == 0 {
		r.log.Warn("no highlight providers enabled")
	}
	return out
}

// Adapters returns the enabled adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	r.Initialize()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Adapter(nil), r.adapters...)
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name models.Provider) (Adapter, error) {
	for _, a := range r.Adapters() {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// Names lists the enabled provider tags.
func (r *Registry) Names() []models.Provider {
	adapters := r.Adapters()
	names := make([]models.Provider, 0, len(adapters))
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	return names
}

// Info reports every known provider and whether it is currently enabled.
func (r *Registry) Info() []Info {
	enabled := make(map[models.Provider]bool)
	for _, name := range r.Names() {
		enabled[name] = true
	}

	out := make([]Info, 0, len(Known))
	for _, p := range Known {
		out = append(out, Info{Name: p, DisplayName: DisplayName(p), Enabled: enabled[p]})
	}
	return out
}

// Reload discards the current adapters and builds them again.
func (r *Registry) Reload() {
	r.Clear()
	r.Initialize()
}

// Clear drops all adapters. The next access rebuilds them.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters = nil
	r.initialized = false
}
