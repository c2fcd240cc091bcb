package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authentication outcomes. They are recorded separately but every failure
// reaches the client as the same UNAUTHORIZED error.
const (
	AuthOutcomeOK           = "ok"
	AuthOutcomeNoToken      = "no_token"
	AuthOutcomeInvalidToken = "invalid_token"
	AuthOutcomeExpiredToken = "expired_token"
	AuthOutcomeRevoked      = "revoked"
	AuthOutcomeUnknownUser  = "unknown_user"
	AuthOutcomeStoreError   = "store_error"
)

// Metrics collects Prometheus series for the HTTP surface and the auth core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	authOutcomes  *prometheus.CounterVec
	sessionsPrune prometheus.Counter
}

// NewMetrics registers the series on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_auth_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "todo_auth_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_auth_http_errors_total",
			Help: "Failed requests by route, method and error code.",
		}, []string{"route", "method", "code"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todo_auth_authentication_total",
			Help: "Authentication attempts by outcome.",
		}, []string{"outcome"}),
		sessionsPrune: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todo_auth_sessions_pruned_total",
			Help: "Expired tokens removed from the allow-list.",
		}),
	}

	reg.MustRegister(m.requests, m.latency, m.errors, m.authOutcomes, m.sessionsPrune)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordAuthOutcome counts one authentication decision.
func (m *Metrics) RecordAuthOutcome(outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// RecordSessionsPruned adds n removed tokens.
func (m *Metrics) RecordSessionsPruned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsPrune.Add(float64(n))
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
