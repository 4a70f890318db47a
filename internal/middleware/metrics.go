package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gradeloop/gradeloop-api/internal/service"
)

// Metrics records duration and status for every request. The route template
// is used as the path label so /homeworks/:id stays a single series instead
// of one per item.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			// unmatched route, collapse to one label to bound cardinality
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
