package cache_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/goalkick-live/backend/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndSkipsEmptyValues(t *testing.T) {
	a := url.Values{"team": {"Arsenal"}, "competition": {"premier-league"}, "search": {" "}}
	b := url.Values{"competition": {"premier-league"}, "team": {"Arsenal"}}

	require.Equal(t, cache.Key("highlights", a), cache.Key("highlights", b))
	require.Equal(t, "highlights:competition=premier-league&team=Arsenal", cache.Key("highlights", a))
	require.Equal(t, "highlights", cache.Key("highlights", url.Values{}))
}

func TestRedisReportsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	store := cache.NewRedis(client, "test:")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.Error(t, err)
	require.False(t, ok)
	require.Error(t, store.Set(ctx, "k", []byte("v"), time.Second))
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "://nope")
	require.Error(t, err)
}
