package http

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tally/internal/services"
)

// metrics is the server's Prometheus registry. Each Server owns one, so
// several servers can live in one process.
type metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func newMetrics(dash *services.Dashboard, security *securityMetrics) *metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tally_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		requests,
		duration,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "tally_rate_limit_hits_total",
			Help: "Mutations rejected by the rate limiter.",
		}, func() float64 { return float64(atomic.LoadInt64(&security.rateLimitHits)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "tally_suspicious_requests_total",
			Help: "Requests matching probe patterns.",
		}, func() float64 { return float64(atomic.LoadInt64(&security.suspiciousRequests)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tally_records",
			Help: "Records in the dashboard snapshot.",
		}, func() float64 { return float64(dash.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tally_records_loaded",
			Help: "1 once the snapshot has been loaded from the store.",
		}, func() float64 {
			if dash.Loaded() {
				return 1
			}
			return 0
		}),
	)
	return &metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
	}
}

func (m *metrics) observe(r *http.Request, status int, elapsed time.Duration) {
	route := routePattern(r)
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// routePattern labels by chi pattern so ids do not explode cardinality.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
