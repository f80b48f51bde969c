package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics holds the HTTP and event-pipeline counters exposed on
// /metrics.
type ServerMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	eventsPublished prometheus.Counter
	eventsConsumed  *prometheus.CounterVec
}

// NewServerMetrics creates and registers the server metric set.
func NewServerMetrics() *ServerMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &ServerMetrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		eventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Outbox events accepted by the broker.",
		}),
		eventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Broker deliveries by processing outcome.",
		}, []string{"outcome"}),
	}
}

// Handler returns the /metrics endpoint handler.
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latencies per route pattern.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// EventPublished counts one outbox event accepted by the broker.
func (m *ServerMetrics) EventPublished() {
	m.eventsPublished.Inc()
}

// EventConsumed counts one broker delivery outcome ("ok" or "failed").
func (m *ServerMetrics) EventConsumed(outcome string) {
	m.eventsConsumed.WithLabelValues(outcome).Inc()
}
