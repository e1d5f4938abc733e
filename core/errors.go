package core

import "fmt"

// ErrorCode classifies every failure mode the pipeline can surface.
// The code is stable API; the message is the short user-facing string.
type ErrorCode string

const (
	ErrInvalidURL   ErrorCode = "INVALID_URL"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrFetch        ErrorCode = "FETCH_FAILED"
	ErrExtraction   ErrorCode = "EXTRACTION_FAILED"
	ErrGeneration   ErrorCode = "GENERATION_FAILED"
	ErrValidation   ErrorCode = "VALIDATION_FAILED"
	ErrPersistence  ErrorCode = "PERSISTENCE_FAILED"
)

// PipelineError carries a stable code, a short user-facing message, and
// the underlying cause for logs. Message never contains article content.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error { return e.Err }

// NewError builds a PipelineError wrapping cause (which may be nil).
func NewError(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: cause}
}
