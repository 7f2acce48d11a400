package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kinshiphq/backend/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus
func MetricsMiddleware() gin.HandlerFunc {
	m := metrics.Get()

	return func(c *gin.Context) {
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime).Seconds()
		// Numeric status code as string (e.g. "200", "500") so Grafana
		// queries like status=~"5.." match 5xx errors
		statusStr := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
	}
}

// RecordRateLimitExceeded records a request rejected by the rate limiter
func RecordRateLimitExceeded(path string) {
	m := metrics.Get()
	m.RateLimitExceededTotal.WithLabelValues(path).Inc()
}

// RecordDatabaseQuery records a database operation
func RecordDatabaseQuery(operation, table string, duration time.Duration) {
	m := metrics.Get()
	m.DatabaseQueriesTotal.WithLabelValues(operation, table).Inc()
	m.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// RecordReaction records a reaction toggle outcome
func RecordReaction(target, action string) {
	m := metrics.Get()
	m.ReactionsTotal.WithLabelValues(target, action).Inc()
}

// RecordFriendRequestTransition records a friend request lifecycle transition
func RecordFriendRequestTransition(action string) {
	m := metrics.Get()
	m.FriendRequestsTotal.WithLabelValues(action).Inc()
}

// RecordError records an error by type
func RecordError(errorType string) {
	m := metrics.Get()
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
