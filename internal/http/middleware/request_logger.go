package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
)

// RequestLogger пишет access-лог в logrus и латентность в Prometheus.
func RequestLogger(log logrus.FieldLogger, m *metrics.MarketplaceMetrics) gin.HandlerFunc {
	log = logger.OrDefault(log)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, elapsed.Seconds())

		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": elapsed.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if accountID, ok := c.Get(ContextAccountIDKey); ok {
			entry = entry.WithField("account_id", accountID)
		}
		switch {
		case status >= 500:
			entry.Error("http запрос")
		case status >= 400:
			entry.Info("http запрос")
		default:
			entry.Debug("http запрос")
		}
	}
}
