package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-registration/internal/logger"
	"patient-registration/pkg/utils"
)

// RecoveryMiddleware turns a panic into a 500 and logs it with the request id.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithRequestID(GetRequestID(c)).Error("Panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				if !c.Writer.Written() {
					utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
