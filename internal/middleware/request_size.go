package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"patient-registration/pkg/utils"
)

// DefaultMaxRequestSize comfortably fits the largest intake form.
const DefaultMaxRequestSize = 1 << 20

func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
