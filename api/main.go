package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goalkick-live/backend/internal/aggregator"
	"github.com/goalkick-live/backend/internal/cache"
	"github.com/goalkick-live/backend/internal/config"
	"github.com/goalkick-live/backend/internal/elasticsearch"
	"github.com/goalkick-live/backend/internal/events"
	"github.com/goalkick-live/backend/internal/highlights"
	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/provider"
	"github.com/goalkick-live/backend/internal/ratelimit"
)

const (
	cachePrefix     = "goalkick:cache"
	rateLimitPrefix = "goalkick:ratelimit"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	checks := map[string]func(context.Context) error{}
	rules := ratelimit.RulesFromConfig(cfg.RateLimits)

	var (
		store   cache.Store
		limiter ratelimit.Limiter
	)
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, using in-memory cache and rate limiter", slog.Any("err", err))
		} else {
			defer client.Close()
			redisStore := cache.NewRedis(client, cachePrefix)
			store = redisStore
			limiter = ratelimit.NewRedis(client, rules, rateLimitPrefix, log)
			checks["cache"] = redisStore.Ping
			log.Info("connected to redis")
		}
	}
	if store == nil {
		store = cache.NewMemory(cfg.CacheCapacity, cfg.CacheTTL)
		memLimiter := ratelimit.NewMemory(rules, time.Now)
		limiter = memLimiter
		go pruneLimiter(ctx, memLimiter, cfg.RateLimits.Window)
	}

	registry := provider.NewRegistry(cfg.Providers, log)
	registry.Initialize()
	checks["providers"] = func(context.Context) error {
		if len(registry.Adapters()) == 0 {
			return errors.New("no providers enabled")
		}
		return nil
	}

	aggOpts := []aggregator.Option{aggregator.WithTTL(cfg.CacheTTL)}
	if cfg.EventsEnabled {
		publisher := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, log)
		defer publisher.Close()
		aggOpts = append(aggOpts, aggregator.WithPublisher(publisher))
		log.Info("publishing highlight events", slog.String("topic", cfg.Topic))
	}
	agg := aggregator.New(registry, store, log, aggOpts...)

	facade := highlights.New(agg, registry, log,
		highlights.WithTTL(cfg.CacheTTL),
		highlights.WithLiveTTL(cfg.LiveCacheTTL),
		highlights.WithTimeout(cfg.FacadeTimeout),
		highlights.WithCapacity(cfg.CacheCapacity),
	)

	srv := &server{
		log:         log,
		highlights:  facade,
		providers:   registry,
		limiter:     limiter,
		checks:      checks,
		corsOrigins: cfg.CORSOrigins,
		timeout:     cfg.FacadeTimeout + 5*time.Second,
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Warn("archive disabled", slog.Any("err", err))
	} else {
		srv.archive = esClient
		checks["archive"] = esClient.Health
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      srv.timeout + 5*time.Second,
	}

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.Any("providers", registry.Names()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
	facade.ClearCache()
	registry.Clear()
}

func pruneLimiter(ctx context.Context, l *ratelimit.Memory, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}
