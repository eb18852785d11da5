package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "platform_register_total",
			Help: "Total number of self-service registrations",
		},
	)

	// Account operation counter
	AccountOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_account_operations_total",
			Help: "Total number of account operations",
		},
		[]string{"operation"}, // "create", "update", "ban", "unban", etc.
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // "create", "provision", "reassign_admin", "set_active"
	)

	// Content operation counter
	ContentOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_content_operations_total",
			Help: "Total number of content operations by resulting state",
		},
		[]string{"operation", "state"},
	)

	// Moderation decision counter
	ModerationDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_moderation_decisions_total",
			Help: "Total number of moderation queue decisions",
		},
		[]string{"decision"}, // "approve", "reject"
	)

	// Notification outcome counter
	NotificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_notifications_total",
			Help: "Total number of author notifications by outcome",
		},
		[]string{"outcome"}, // "sent", "failed"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counter
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_errors_total",
			Help: "Total number of request errors",
		},
		[]string{"type"}, // "invalid_request", "permission_denied", "duplicate", etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platform_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platform_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Active tokens
	ActiveTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "platform_active_tokens",
			Help: "Number of currently active authentication tokens",
		},
	)

	// Pending moderation items
	PendingModerationGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "platform_pending_moderation_items",
			Help: "Number of moderation queue items awaiting review",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "platform_info",
			Help: "Information about the platform core service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AccountOperationCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(ContentOperationCounter)
	prometheus.MustRegister(ModerationDecisionCounter)
	prometheus.MustRegister(NotificationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(ErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(ActiveTokensGauge)
	prometheus.MustRegister(PendingModerationGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// IncreaseActiveTokens increments the active tokens gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.Inc()
}

// RecordError records a request error by type
func RecordError(errorType string) {
	ErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAccountOperation records an account operation
func RecordAccountOperation(operation string) {
	AccountOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordContentOperation records a content operation and its resulting state
func RecordContentOperation(operation, state string) {
	ContentOperationCounter.With(prometheus.Labels{
		"operation": operation,
		"state":     state,
	}).Inc()
}

// RecordModerationDecision records a moderation decision
func RecordModerationDecision(decision string) {
	ModerationDecisionCounter.With(prometheus.Labels{"decision": decision}).Inc()
}

// RecordNotification records a notification delivery outcome
func RecordNotification(outcome string) {
	NotificationCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}
