package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "storefront"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	paymentIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payment_intents_total",
			Help:      "Payment intents requested, by outcome",
		},
		[]string{"status"},
	)

	paymentVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payment_verifications_total",
			Help:      "Checkout signature verifications, by result",
		},
		[]string{"result"},
	)

	ordersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_created_total",
			Help:      "Orders recorded after a verified payment",
		},
	)

	orderStatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "order_status_changes_total",
			Help:      "Order status updates, by target status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		paymentIntentsTotal,
		paymentVerificationsTotal,
		ordersCreatedTotal,
		orderStatusChangesTotal,
	)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RecordPaymentIntent counts an intent request; status is "created" or
// "failed".
func RecordPaymentIntent(status string) {
	paymentIntentsTotal.WithLabelValues(status).Inc()
}

// RecordPaymentVerification counts a verify call; result is "valid" or
// "invalid".
func RecordPaymentVerification(result string) {
	paymentVerificationsTotal.WithLabelValues(result).Inc()
}

func RecordOrderCreated() {
	ordersCreatedTotal.Inc()
}

func RecordOrderStatusChange(status string) {
	orderStatusChangesTotal.WithLabelValues(status).Inc()
}
