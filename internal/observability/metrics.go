package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	invoicesGenerated    prometheus.Counter
	invoiceGenFailures   prometheus.Counter
	reconciliationFixes  prometheus.Counter
	paymentsRegistered   prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	invoicesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerline_invoices_generated_total",
		Help: "Invoices generated from won quotations.",
	})
	invoiceGenFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerline_invoice_generation_failures_total",
		Help: "Failed invoice generation attempts following a Won transition.",
	})
	reconciliationFixes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerline_reconciliation_repairs_total",
		Help: "Missing invoices repaired by the reconciliation job.",
	})
	paymentsRegistered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerline_payments_registered_total",
		Help: "Receipts posted against invoices.",
	})
	registry.MustRegister(requests, duration, invoicesGenerated, invoiceGenFailures, reconciliationFixes, paymentsRegistered)
	return &Metrics{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:       requests,
		requestDuration:     duration,
		invoicesGenerated:   invoicesGenerated,
		invoiceGenFailures:  invoiceGenFailures,
		reconciliationFixes: reconciliationFixes,
		paymentsRegistered:  paymentsRegistered,
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

// Middleware records metrics for every HTTP request.
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

// InvoiceGenerated counts a successful Won-to-invoice generation.
func (m *Metrics) InvoiceGenerated() {
	if m != nil {
		m.invoicesGenerated.Inc()
	}
}

// InvoiceGenerationFailed counts a failed generation attempt.
func (m *Metrics) InvoiceGenerationFailed() {
	if m != nil {
		m.invoiceGenFailures.Inc()
	}
}

// ReconciliationRepair counts an invoice recreated by the reconciliation job.
func (m *Metrics) ReconciliationRepair() {
	if m != nil {
		m.reconciliationFixes.Inc()
	}
}

// PaymentRegistered counts a posted receipt.
func (m *Metrics) PaymentRegistered() {
	if m != nil {
		m.paymentsRegistered.Inc()
	}
}

// Registerer exposes the registry for registering custom metrics.
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
