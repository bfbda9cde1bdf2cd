package config_test

import (
	"testing"
	"time"

	"github.com/goalkick-live/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "highlights", cfg.ElasticsearchIndex)
	require.Len(t, cfg.Brokers, 1)
	require.Equal(t, "kafka:9092", cfg.Brokers[0])
	require.Equal(t, "highlights_raw", cfg.Topic)
	require.Equal(t, "highlights-archiver", cfg.KafkaConsumer)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092,broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("WORKER_KEYWORD_LIMIT", "12")
	t.Setenv("WORKER_KEYWORD_MIN_LEN", "5")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_BATCH_SIZE", "3")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Len(t, cfg.Brokers, 2)
	require.Equal(t, "broker-a:29092", cfg.Brokers[0])
	require.Equal(t, "custom_topic", cfg.Topic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, 12, cfg.KeywordLimit)
	require.Equal(t, 5, cfg.KeywordMinLength)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.BatchSize)
}

func TestLoadAPIDefaults(t *testing.T) {
	for _, key := range []string{
		"API_BIND_ADDR", "REDIS_URL", "CACHE_TTL", "LIVE_CACHE_TTL", "CACHE_CAPACITY",
		"SUPERSPORT_ENABLED", "SCOREBAT_ENABLED", "SCOREBAT_API_TOKEN", "SCOREBAT_BASE_URL",
		"RATE_LIMIT_HIGHLIGHTS", "RATE_LIMIT_GENERAL", "RATE_LIMIT_VIDEO", "RATE_LIMIT_WINDOW",
		"HIGHLIGHT_EVENTS_ENABLED", "HIGHLIGHTS_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	require.Empty(t, cfg.RedisURL)
	require.Equal(t, 300*time.Second, cfg.CacheTTL)
	require.Equal(t, 60*time.Second, cfg.LiveCacheTTL)
	require.Equal(t, 1000, cfg.CacheCapacity)
	require.Equal(t, 10*time.Second, cfg.FacadeTimeout)
	require.True(t, cfg.SupersportEnabled)
	require.True(t, cfg.ScorebatEnabled)
	require.Empty(t, cfg.ScorebatToken)
	require.Equal(t, "https://www.scorebat.com", cfg.ScorebatBaseURL)
	require.Equal(t, 100, cfg.RateLimits.Highlights)
	require.Equal(t, 50, cfg.RateLimits.General)
	require.Equal(t, 30, cfg.RateLimits.Video)
	require.Equal(t, time.Minute, cfg.RateLimits.Window)
	require.False(t, cfg.EventsEnabled)
}

func TestLoadAPIOverrides(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("SUPERSPORT_ENABLED", "false")
	t.Setenv("SCOREBAT_API_TOKEN", "secret")
	t.Setenv("SCOREBAT_BASE_URL", "http://scorebat.local/")
	t.Setenv("CORS_ORIGINS", "https://goalkick.live, https://www.goalkick.live")
	t.Setenv("RATE_LIMIT_VIDEO", "5")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL)
	require.False(t, cfg.SupersportEnabled)
	require.Equal(t, "secret", cfg.ScorebatToken)
	require.Equal(t, "http://scorebat.local", cfg.ScorebatBaseURL)
	require.Equal(t, []string{"https://goalkick.live", "https://www.goalkick.live"}, cfg.CORSOrigins)
	require.Equal(t, 5, cfg.RateLimits.Video)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
}

func TestLoadAPIRejectsInvalidValues(t *testing.T) {
	t.Setenv("CACHE_CAPACITY", "0")

	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadRetention(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "ret-index")
	t.Setenv("RETENTION_CRON", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "ret-index", cfg.ElasticsearchIndex)
}
