package middleware

import (
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	KeyRequestID    = "requestID"
	HeaderRequestID = "X-Request-ID"
)

// RequestLogger tags each request with an ID and logs it once it completes.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(KeyRequestID, reqID)
		c.Header(HeaderRequestID, reqID)

		c.Next()

		args := []any{
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if uid := c.GetString(KeyUserID); uid != "" {
			args = append(args, "uid", uid)
		}

		ctx := c.Request.Context()
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error(ctx, "request", append(args, "errors", c.Errors.String())...)
		case status >= 400:
			log.Warn(ctx, "request", args...)
		default:
			log.Info(ctx, "request", args...)
		}
	}
}
