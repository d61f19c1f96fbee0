// Package middleware provides the HTTP rate limiting layer.
package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/tubedash/tubedash/internal/ratelimit"
	"github.com/tubedash/tubedash/metrics"
)

// KeyFunc derives the quota key for a request.
type KeyFunc func(*http.Request) string

// DefaultKeyFunc identifies callers by network origin: the X-Forwarded-For
// header value if present, then X-Real-IP, then the literal "unknown".
// Callers with neither header all share the "unknown" bucket.
func DefaultKeyFunc(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return v
	}
	return "unknown"
}

// Limiter is the decision surface the middleware needs.
type Limiter interface {
	Allow(key string) ratelimit.Result
}

// rejectBody is the JSON payload written with a 429 response.
type rejectBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit enforces one limiter tier in front of a handler chain.
type RateLimit struct {
	name    string
	limiter Limiter
	metrics *metrics.RateLimitMetrics
	keyFn   KeyFunc
}

// NewRateLimit creates a middleware for one limiter tier. A nil keyFn
// selects DefaultKeyFunc.
func NewRateLimit(name string, limiter Limiter, m *metrics.RateLimitMetrics, keyFn KeyFunc) *RateLimit {
	if keyFn == nil {
		keyFn = DefaultKeyFunc
	}
	return &RateLimit{
		name:    name,
		limiter: limiter,
		metrics: m,
		keyFn:   keyFn,
	}
}

// Handler wraps next with the quota check. Quota headers are attached to
// every response; on rejection the request is answered here with 429 and
// next never runs.
func (m *RateLimit) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.keyFn(r)
		res := m.limiter.Allow(key)
		m.metrics.RecordRequest(res.Allowed)

		reset := res.ResetSeconds()
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.Itoa(reset))

		if !res.Allowed {
			log.Warn().
				Str("limiter", m.name).
				Str("key", key).
				Int("count", res.Count).
				Int("limit", res.Limit).
				Msg("Rate limit exceeded")
			h.Set("Retry-After", strconv.Itoa(reset))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rejectBody{
				Error:      "Too many requests",
				RetryAfter: reset,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HandlerFunc is Handler for plain http.HandlerFunc routes.
func (m *RateLimit) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return m.Handler(next).ServeHTTP
}
