package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/goalkick-live/backend/internal/logger"
)

// Redis is a sliding-window limiter shared by every API instance. Each request is a
// sorted-set member scored by its timestamp in milliseconds.
type Redis struct {
	client *redis.Client
	rules  Rules
	prefix string
	now    func() time.Time
	log    *slog.Logger
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a limiter storing windows under prefix.
func NewRedis(client *redis.Client, rules Rules, prefix string, log *slog.Logger) *Redis {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Redis{client: client, rules: rules, prefix: prefix, now: time.Now, log: logger.OrDiscard(log)}
}

// Check fails open: when Redis is unavailable the request is allowed and the
// error is logged and returned alongside the permissive result.
func (l *Redis) Check(ctx context.Context, clientID string, bucket Bucket) (Result, error) {
	rule, ok := l.rules[bucket]
	if !ok || rule.Limit <= 0 {
		return Result{Allowed: true}, nil
	}

	now := l.now()
	res, err := l.check(ctx, l.prefix+":"+key(bucket, clientID), rule, now)
	if err != nil {
		l.log.Warn("rate limiter unavailable, allowing request",
			slog.String("bucket", string(bucket)),
			slog.Any("err", err),
		)
		return Result{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit - 1, ResetAt: now.Add(rule.Window)}, err
	}
	return res, nil
}

// slidingWindow trims expired members, counts the rest and records the request
// only when it fits, all in one atomic step. It returns {allowed, count, oldest}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local first = now
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest > 0 then
	first = tonumber(oldest[2])
end

if count >= limit then
	return {0, count, first}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count, first}
`)

func (l *Redis) check(ctx context.Context, k string, rule Rule, now time.Time) (Result, error) {
	vals, err := slidingWindow.Run(ctx, l.client, []string{k},
		now.UnixMilli(), rule.Window.Milliseconds(), rule.Limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("sliding window: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("sliding window: unexpected reply %v", vals)
	}

	count := int(vals[1])
	resetAt := time.UnixMilli(vals[2]).Add(rule.Window)
	if vals[0] == 0 {
		return Result{Limit: rule.Limit, ResetAt: resetAt}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     rule.Limit,
		Remaining: rule.Limit - count - 1,
		ResetAt:   resetAt,
	}, nil
}
