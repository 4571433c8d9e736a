package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OriginHeader names the requesting origin on RPC calls
const OriginHeader = "X-Origin"

// maxLoggedBody caps how much of a request body is written to debug logs
const maxLoggedBody = 4096

// RequestLogger logs every request once it completes. With logBodies set the
// request body is logged at debug level as well; it is meant for local runs.
func RequestLogger(logBodies bool) gin.HandlerFunc {
	log := logger.ForComponent(logger.ComponentMiddleware)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		if logBodies && c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				log.Error("Failed to read request body", zap.Error(err))
			}
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
			if len(body) > maxLoggedBody {
				body = body[:maxLoggedBody]
			}
			log.Debug("Request body",
				zap.String("correlation_id", GetCorrelationID(c)),
				zap.String("path", c.Request.URL.Path),
				zap.ByteString("body", body))
		}

		c.Next()

		fields := []zap.Field{
			zap.String("correlation_id", GetCorrelationID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if origin := c.GetHeader(OriginHeader); origin != "" {
			fields = append(fields, zap.String("origin", origin))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("Request completed", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("Request completed", fields...)
		default:
			log.Info("Request completed", fields...)
		}
	}
}
