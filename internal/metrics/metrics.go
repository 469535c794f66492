// Package metrics declares the Prometheus collectors of the application.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// InvoicesIssued counts committed transactions by kind (venta, compra).
	InvoicesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "invoices_issued_total",
		Help:      "Invoices issued with their transaction.",
	}, []string{"kind"})

	// TransactionFailures counts aborted workflows by kind and error class.
	TransactionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "transaction_failures_total",
		Help:      "Sale and purchase workflows that did not commit.",
	}, []string{"kind", "reason"})

	// RenderDuration observes invoice PDF generation time.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "farmacia",
		Name:      "invoice_render_seconds",
		Help:      "Time spent rendering invoice documents.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTPRequests counts served requests by method and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmacia",
		Name:      "http_requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "status"})

	// HTTPDuration observes request latency by method.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "farmacia",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
