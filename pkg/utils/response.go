package utils

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
	})
}

// ValidationErrorResponse reports field-level failures as {field: message}.
func ValidationErrorResponse(c *gin.Context, status int, message string, fields map[string]string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}
