package httpapi

import (
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestLogger tags every request with an id (reusing X-Request-Id when the
// caller sent one) and logs it once the handler has finished.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(common.RequestIDKey, id)
		c.Header(common.RequestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info(c.Request.Context(), "http request",
			common.RequestIDKey, id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
