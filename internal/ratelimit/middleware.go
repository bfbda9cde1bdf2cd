package ratelimit

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goalkick-live/backend/internal/logger"
)

const unknownClient = "unknown"

// ClientID identifies the caller from proxy headers, falling back to "unknown".
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	return unknownClient
}

// Middleware rejects requests over the bucket limit with 429 and annotates every
// response with X-RateLimit headers.
func Middleware(l Limiter, bucket Bucket, log *slog.Logger) func(http.Handler) http.Handler {
	log = logger.OrDiscard(log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientID(r)
			res, err := l.Check(r.Context(), client, bucket)
			if err != nil {
				log.Debug("rate limit check degraded", slog.String("client", client), slog.Any("err", err))
			}

			if res.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}

			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter(time.Now()).Seconds()))
				if retry < 1 {
					retry = 1
				}
				log.Info("rate limit exceeded",
					slog.String("client", client),
					slog.String("bucket", string(bucket)),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":      "Too many requests, please try again later.",
					"retryAfter": retry,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
