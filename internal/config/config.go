package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Kafka describes the highlight event topic.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Providers selects and configures the upstream highlight adapters.
type Providers struct {
	SupersportEnabled bool
	ScorebatEnabled   bool
	ScorebatToken     string
	ScorebatBaseURL   string
	ScorebatTimeout   time.Duration
}

// RateLimits holds the per-bucket request thresholds.
type RateLimits struct {
	Window     time.Duration
	Highlights int
	General    int
	Video      int
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Kafka
	Providers
	RateLimits    RateLimits
	BindAddr      string
	CORSOrigins   []string
	RedisURL      string
	CacheTTL      time.Duration
	LiveCacheTTL  time.Duration
	CacheCapacity int
	FacadeTimeout time.Duration
	EventsEnabled bool
}

// Worker holds configuration for the Kafka -> Elasticsearch archiver.
type Worker struct {
	Common
	Kafka
	KafkaConsumer    string
	KeywordLimit     int
	KeywordMinLength int
	DedupeCapacity   int
	DedupeTTL        time.Duration
	BatchSize        int
}

// Retention configures the archive cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "highlights"),
	}
}

func loadKafka() Kafka {
	return Kafka{
		Brokers: splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		Topic:   getEnv("KAFKA_TOPIC", "highlights_raw"),
	}
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common: loadCommon(),
		Kafka:  loadKafka(),
		Providers: Providers{
			SupersportEnabled: getBool("SUPERSPORT_ENABLED", true),
			ScorebatEnabled:   getBool("SCOREBAT_ENABLED", true),
			ScorebatToken:     getEnv("SCOREBAT_API_TOKEN", ""),
			ScorebatBaseURL:   strings.TrimRight(getEnv("SCOREBAT_BASE_URL", "https://www.scorebat.com"), "/"),
			ScorebatTimeout:   getDuration("SCOREBAT_TIMEOUT", "8s"),
		},
		RateLimits: RateLimits{
			Window:     getDuration("RATE_LIMIT_WINDOW", "60s"),
			Highlights: getInt("RATE_LIMIT_HIGHLIGHTS", 100),
			General:    getInt("RATE_LIMIT_GENERAL", 50),
			Video:      getInt("RATE_LIMIT_VIDEO", 30),
		},
		BindAddr:      getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		CORSOrigins:   splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RedisURL:      getEnv("REDIS_URL", ""),
		CacheTTL:      getDuration("CACHE_TTL", "300s"),
		LiveCacheTTL:  getDuration("LIVE_CACHE_TTL", "60s"),
		CacheCapacity: getInt("CACHE_CAPACITY", 1000),
		FacadeTimeout: getDuration("HIGHLIGHTS_TIMEOUT", "10s"),
		EventsEnabled: getBool("HIGHLIGHT_EVENTS_ENABLED", false),
	}

	if c.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.LiveCacheTTL <= 0 {
		return nil, fmt.Errorf("LIVE_CACHE_TTL must be positive")
	}
	if c.CacheCapacity <= 0 {
		return nil, fmt.Errorf("CACHE_CAPACITY must be positive")
	}
	if c.FacadeTimeout <= 0 {
		return nil, fmt.Errorf("HIGHLIGHTS_TIMEOUT must be positive")
	}
	if c.RateLimits.Window <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.RateLimits.Highlights <= 0 || c.RateLimits.General <= 0 || c.RateLimits.Video <= 0 {
		return nil, fmt.Errorf("rate limits must be positive")
	}
	if c.EventsEnabled && len(c.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker when events are enabled")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:           loadCommon(),
		Kafka:            loadKafka(),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "highlights-archiver"),
		KeywordLimit:     getInt("WORKER_KEYWORD_LIMIT", 8),
		KeywordMinLength: getInt("WORKER_KEYWORD_MIN_LEN", 4),
		DedupeCapacity:   getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:        getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:        getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_MIN_LEN cannot be negative")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_CRON", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "2160h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
