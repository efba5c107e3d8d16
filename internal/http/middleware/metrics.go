package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the server's Prometheus registry. It also records timesheet
// mutations and the collection size.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	entries         prometheus.Gauge
}

// NewMetrics creates a registry with process and Go runtime collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tsm_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tsm_timesheet_mutations_total",
				Help: "Timesheet mutations by operation",
			},
			[]string{"op"},
		),
		entries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tsm_timesheet_entries",
			Help: "Number of timesheet entries in memory",
		}),
	}
}

// Handler records request duration, labelled by route pattern so entry
// ids do not become label values.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start).Seconds()

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(duration)
	})
}

// Exposition serves the registry in the Prometheus text format.
func (m *Metrics) Exposition() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Mutation counts one timesheet create, update or delete.
func (m *Metrics) Mutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

// SetEntries sets the entry gauge.
func (m *Metrics) SetEntries(n int) {
	m.entries.Set(float64(n))
}
