package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	salesCreated     *prometheus.CounterVec
	paymentsRecorded *prometheus.CounterVec
	sweepRuns        prometheus.Counter
	sweepOverdue     prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abasto_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "abasto_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	salesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abasto_sales_created_total",
		Help: "Sales created by payment type.",
	}, []string{"payment_type"})
	paymentsRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "abasto_payments_recorded_total",
		Help: "Payments recorded by method.",
	}, []string{"method"})
	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abasto_overdue_sweep_runs_total",
		Help: "Completed overdue sweep passes.",
	})
	sweepOverdue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "abasto_overdue_sweep_marked_total",
		Help: "Sales flipped to overdue by sweep passes.",
	})
	registry.MustRegister(requests, duration, salesCreated, paymentsRecorded, sweepRuns, sweepOverdue)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		salesCreated:     salesCreated,
		paymentsRecorded: paymentsRecorded,
		sweepRuns:        sweepRuns,
		sweepOverdue:     sweepOverdue,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// SaleCreated counts one created sale.
func (m *Metrics) SaleCreated(paymentType string) {
	if m == nil {
		return
	}
	m.salesCreated.WithLabelValues(paymentType).Inc()
}

// PaymentRecorded counts one recorded payment.
func (m *Metrics) PaymentRecorded(method string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(method).Inc()
}

// SweepCompleted counts one sweep pass and the sales it flipped.
func (m *Metrics) SweepCompleted(markedOverdue int) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepOverdue.Add(float64(markedOverdue))
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
