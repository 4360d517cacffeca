package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP layer and the flow
// counters. A private registry keeps the /metrics output limited to what
// this process owns.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	codesIssued        *prometheus.CounterVec
	credentialsIssued  *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devauth_http_requests_total",
			Help: "HTTP requests by method, route pattern, and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devauth_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		codesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devauth_authorization_codes_issued_total",
			Help: "Authorization codes issued, by provider and variant.",
		}, []string{"provider", "variant"}),
		credentialsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devauth_credentials_issued_total",
			Help: "Credentials issued from token exchanges, by provider and variant.",
		}, []string{"provider", "variant"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devauth_credential_validation_failures_total",
			Help: "Failed userinfo credential validations, by provider, variant, and error code.",
		}, []string{"provider", "variant", "error"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.codesIssued,
		m.credentialsIssued,
		m.validationFailures,
	)
	return m
}

// Middleware records request counts and latency. The chi route pattern is
// used as the path label so provider IDs do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		m.httpRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		m.httpDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the /metrics endpoint from the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CodeIssued counts a freshly generated authorization code.
func (m *Metrics) CodeIssued(provider, variant string) {
	m.codesIssued.WithLabelValues(provider, variant).Inc()
}

// CredentialIssued counts a successful token exchange.
func (m *Metrics) CredentialIssued(provider, variant string) {
	m.credentialsIssued.WithLabelValues(provider, variant).Inc()
}

// ValidationFailed counts a rejected userinfo credential.
func (m *Metrics) ValidationFailed(provider, variant, errCode string) {
	m.validationFailures.WithLabelValues(provider, variant, errCode).Inc()
}
