package middleware

import (
	"net/http"
	"time"

	"github.com/LixUb/ZoNaTrip/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger writes one structured line per request, including request_id.
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		fields := []interface{}{
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", float64(latency.Microseconds()) / 1000.0,
			"ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("[HTTP]", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("[HTTP]", fields...)
		default:
			log.Info("[HTTP]", fields...)
		}
	}
}

// Recovery turns a panic into a 500 with the usual error payload and logs it.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		rid := GetRequestID(c)
		log.Error("panic recovered", "request_id", rid, "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"message":    "Terjadi kesalahan server",
			"code":       "internal_error",
			"request_id": rid,
		})
	})
}
