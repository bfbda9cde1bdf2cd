// Package ratelimit enforces per-client sliding-window request limits.
package ratelimit

import (
	"context"
	"time"

	"github.com/goalkick-live/backend/internal/config"
)

// Bucket groups endpoints that share one limit.
type Bucket string

const (
	BucketHighlights Bucket = "highlights"
	BucketGeneral    Bucket = "general"
	BucketVideo      Bucket = "video"
)

// Rule allows Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Rules maps every bucket to its rule.
type Rules map[Bucket]Rule

// RulesFromConfig builds the bucket rules from configuration.
func RulesFromConfig(cfg config.RateLimits) Rules {
	return Rules{
		BucketHighlights: {Limit: cfg.Highlights, Window: cfg.Window},
		BucketGeneral:    {Limit: cfg.General, Window: cfg.Window},
		BucketVideo:      {Limit: cfg.Video, Window: cfg.Window},
	}
}

// Result is the outcome of one Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a denied client should wait.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Limiter records a request from clientID against bucket and reports whether it is allowed.
type Limiter interface {
	Check(ctx context.Context, clientID string, bucket Bucket) (Result, error)
}

func key(bucket Bucket, clientID string) string {
	return string(bucket) + ":" + clientID
}
