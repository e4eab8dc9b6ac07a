package prometheus

import (
	"net/http"
	"sync"
	"time"

	"order-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Business metrics
	OrdersCreatedCounter  prometheus.Counter
	InvoicesIssuedCounter *prometheus.CounterVec
	EmailsCounter         *prometheus.CounterVec
	InvoiceNumberRetries  prometheus.Counter

	initOnce sync.Once
)

// InitMetrics registers the service metrics under the configured prefix.
// Only the first call has an effect.
func InitMetrics(cfg *config.Config) {
	initOnce.Do(func() {
		register(cfg.Metrics.Prefix)
	})
}

func register(prefix string) {
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of login attempts",
		},
	)

	AuthErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"type"},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	OrdersCreatedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Total number of orders created",
		},
	)

	InvoicesIssuedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_invoices_issued_total",
			Help: "Total number of invoices issued",
		},
		[]string{"source"},
	)

	EmailsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_emails_total",
			Help: "Total number of invoice emails by outcome",
		},
		[]string{"status"},
	)

	InvoiceNumberRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_invoice_number_retries_total",
			Help: "Total number of transactions retried after an invoice number collision",
		},
	)
}

// GetPrometheusHandler returns the scrape endpoint handler
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthAttempt increments the login attempt counter
func RecordAuthAttempt() {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.Inc()
	}
}

// RecordAuthError increments the auth error counter for errorType
func RecordAuthError(errorType string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(errorType).Inc()
	}
}

// RecordOrderCreated increments the created orders counter
func RecordOrderCreated() {
	if OrdersCreatedCounter != nil {
		OrdersCreatedCounter.Inc()
	}
}

// RecordInvoiceIssued increments the invoice counter; source is "order" or "manual"
func RecordInvoiceIssued(source string) {
	if InvoicesIssuedCounter != nil {
		InvoicesIssuedCounter.WithLabelValues(source).Inc()
	}
}

// RecordEmail increments the email counter for status
func RecordEmail(status string) {
	if EmailsCounter != nil {
		EmailsCounter.WithLabelValues(status).Inc()
	}
}

// RecordInvoiceNumberRetry increments the allocation retry counter
func RecordInvoiceNumberRetry() {
	if InvoiceNumberRetries != nil {
		InvoiceNumberRetries.Inc()
	}
}
