package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/articlehub/articlehub/pkg/logger"
	"github.com/articlehub/articlehub/pkg/metrics"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger replaces gin.Logger: one structured record per request plus
// the request-duration histogram. An incoming X-Request-ID is kept, otherwise
// a new one is generated and echoed back.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.RequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := []any{
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if id, ok := IdentityFrom(c); ok {
			fields = append(fields, "uid", id.UID)
		}
		l := logger.With(fields...)
		switch {
		case status >= 500:
			l.Error("request completed")
		case status >= 400:
			l.Warn("request completed")
		default:
			l.Info("request completed")
		}
	}
}
