package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/workforce-management-api/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// inject into context
		ctx := logger.With(c.Request.Context(), "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)

		// propagate back to response
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
