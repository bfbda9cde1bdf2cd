package cache

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Store is a byte-oriented key/value cache with per-entry expiry.
// A miss is reported as (nil, false, nil); errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key builds a stable cache key from a prefix and a set of parameters.
// Empty values are dropped and keys are sorted, so equal filters yield equal keys.
func Key(prefix string, params url.Values) string {
	clean := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				clean.Add(k, v)
			}
		}
	}
	encoded := clean.Encode()
	if encoded == "" {
		return prefix
	}
	return prefix + ":" + encoded
}
