package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// RequestIDKey is the gin context key and response header holding the request id.
	RequestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "__request_logger"
)

// Requests returns a gin middleware that tags every request with an id and
// logs it once the response is written.
func Requests(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		c.Set(RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		reqLog := base.With().Str(RequestIDKey, requestID).Logger()
		c.Set(loggerKey, reqLog)

		c.Next()

		status := c.Writer.Status()
		event := reqLog.Info()
		if status >= 500 {
			event = reqLog.Error()
		} else if status >= 400 {
			event = reqLog.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("host", c.Request.Host).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}

// FromContext returns the request scoped logger set by Requests, or fallback.
// The result is a pointer so event methods can be chained on it directly.
func FromContext(c *gin.Context, fallback zerolog.Logger) *zerolog.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if l, ok := value.(zerolog.Logger); ok {
			return &l
		}
	}
	return &fallback
}
