package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/mindengage-worksheets/internal/equation"
	"github.com/mind-engage/mindengage-worksheets/internal/export"
)

type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Exports         *prometheus.CounterVec
	MathFailures    *prometheus.CounterVec
	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests; the server uses its own registry too so repeated construction is safe.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worksheet_exports_total",
				Help: "Worksheet exports by format and result",
			},
			[]string{"format", "result"},
		),
		MathFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "math_render_failures_total",
				Help: "Math spans that fell back to their source text",
			},
			[]string{"mode"},
		),
		BackendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_requests_total",
				Help: "Requests to the generation backend",
			},
			[]string{"op", "status"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backend_request_duration_seconds",
				Help:    "Duration of requests to the generation backend",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"op"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.RequestCounter, m.RequestDuration, m.Exports, m.MathFailures, m.BackendCalls, m.BackendDuration)
	return m
}

// Middleware records every request under its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveExport fits export.WithObserver.
func (m *Metrics) ObserveExport(f export.Format, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Exports.WithLabelValues(string(f), result).Inc()
}

// ObserveMathFailure fits equation.WithFailureHook.
func (m *Metrics) ObserveMathFailure(mode equation.Mode) {
	m.MathFailures.WithLabelValues(string(mode)).Inc()
}

// ObserveBackend fits backend.WithObserver. Transport failures report status 0.
func (m *Metrics) ObserveBackend(op string, status int, took time.Duration) {
	m.BackendCalls.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.BackendDuration.WithLabelValues(op).Observe(took.Seconds())
}
