package middleware

import (
	"strconv"

	"github.com/LixUb/ZoNaTrip/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics counts requests by method, route template and status.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
