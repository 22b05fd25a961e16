package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

// RequestLogger emits one structured line per request.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		event := log.ZL.Info()
		if c.Writer.Status() >= 500 {
			event = log.ZL.Error()
		} else if c.Writer.Status() >= 400 {
			event = log.ZL.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", RequestID(c)).
			Msg("request")
	}
}
