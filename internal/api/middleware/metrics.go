package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casacolor/casacolor-backend-go/pkg/metrics"
)

// MetricsMiddleware records per-request counters and latency histograms
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		if collector != nil {
			status := strconv.Itoa(c.Writer.Status())
			collector.RecordHTTPRequest(c.Request.Method, path, status, time.Since(start))
		}
	}
}
