// Package metrics defines Prometheus metrics for the embedding gateway.
//
// Metric naming follows Prometheus conventions:
//   - embedgw_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	EndpointLogin      = "login"
	EndpointGuestToken = "guest_token"

	OutcomeSuccess     = "success"
	OutcomeHTTPError   = "http_error"
	OutcomeTimeout     = "timeout"
	OutcomeUnavailable = "unavailable"
	OutcomeProtocol    = "protocol_error"
)

var (
	// LoginAttemptsTotal counts inbound login attempts by resolved user type and result.
	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgw_login_attempts_total",
			Help: "Total inbound login attempts by user type and result.",
		},
		[]string{"user_type", "result"},
	)

	// SupersetRequestsTotal counts outbound Superset API calls by endpoint and outcome.
	SupersetRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgw_superset_requests_total",
			Help: "Total Superset API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	SupersetRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedgw_superset_request_duration_seconds",
			Help:    "Duration of Superset API requests in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"endpoint"},
	)

	// SessionCacheTotal counts admin session lookups served from cache (hit) or upstream (miss).
	SessionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgw_session_cache_total",
			Help: "Admin session cache lookups by result.",
		},
		[]string{"result"},
	)

	GuestTokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgw_guest_tokens_issued_total",
			Help: "Guest tokens issued by scope.",
		},
		[]string{"scope"},
	)
)

var registerOnce sync.Once

// Register adds all gateway metrics to reg. Safe to call once per registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		LoginAttemptsTotal,
		SupersetRequestsTotal,
		SupersetRequestDurationSeconds,
		SessionCacheTotal,
		GuestTokensIssuedTotal,
	)
}

// MustRegisterDefault registers the gateway metrics with the default Prometheus registry once.
func MustRegisterDefault() {
	registerOnce.Do(func() {
		Register(prometheus.DefaultRegisterer)
	})
}

func RecordLoginAttempt(userType, result string) {
	if userType == "" {
		userType = "unknown"
	}
	LoginAttemptsTotal.WithLabelValues(userType, result).Inc()
}

func RecordSupersetRequest(endpoint, outcome string, duration time.Duration) {
	SupersetRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	SupersetRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func RecordSessionCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SessionCacheTotal.WithLabelValues(result).Inc()
}

func RecordGuestTokenIssued(scope string) {
	GuestTokensIssuedTotal.WithLabelValues(scope).Inc()
}
