// Package metrics tracks rate limit decisions for each limiter tier.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// decisions counts every rate limit verdict by limiter tier and outcome. It
// registers with the default registry, served at /metrics.
var decisions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tubedash",
	Subsystem: "ratelimit",
	Name:      "requests_total",
	Help:      "Rate limit decisions by limiter tier and outcome.",
}, []string{"limiter", "outcome"})

// RateLimitMetrics records decisions for one limiter instance. The atomic
// fields are cheap to read directly in tests; the prometheus counters feed
// the /metrics endpoint.
type RateLimitMetrics struct {
	TotalRequests    int32
	RejectedRequests int32
	AllowedRequests  int32

	allowed  prometheus.Counter
	rejected prometheus.Counter
}

func NewRateLimitMetrics(limiter string) *RateLimitMetrics {
	return &RateLimitMetrics{
		allowed:  decisions.WithLabelValues(limiter, "allowed"),
		rejected: decisions.WithLabelValues(limiter, "rejected"),
	}
}

func (r *RateLimitMetrics) RecordRequest(allowed bool) {
	atomic.AddInt32(&r.TotalRequests, 1)
	if allowed {
		atomic.AddInt32(&r.AllowedRequests, 1)
		r.allowed.Inc()
	} else {
		atomic.AddInt32(&r.RejectedRequests, 1)
		r.rejected.Inc()
	}
}
