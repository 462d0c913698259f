package errors

import (
	"fmt"
)

const CodeValidation = "VALIDATION_ERROR"

type AppError struct {
	Code    string
	Message string
	Err     error
	// Fields holds per-field messages keyed by the JSON field name.
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds a VALIDATION_ERROR carrying field-level messages.
func NewValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Validation errors",
		Fields:  fields,
	}
}
