package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeFetch         = "FETCH_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeEvaluation    = "EVALUATION_ERROR"
	ErrCodeRender        = "RENDER_ERROR"
	ErrCodeChannel       = "CHANNEL_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeStore         = "STORE_ERROR"
	ErrCodeLockDenied    = "LOCK_DENIED"
)

// ConsoleError is the structured error type for all fresque operations.
type ConsoleError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Field   string         `json:"field,omitempty"`
	Cause   error          `json:"-"`
}

func (e *ConsoleError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] field %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ConsoleError.
func NewError(code, message string) *ConsoleError {
	return &ConsoleError{Code: code, Message: message}
}

// NewErrorf creates a new ConsoleError with a formatted message.
func NewErrorf(code, format string, args ...any) *ConsoleError {
	return &ConsoleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithField attaches the source path of the offending field.
func (e *ConsoleError) WithField(field string) *ConsoleError {
	e.Field = field
	return e
}

// WithCause attaches an underlying cause.
func (e *ConsoleError) WithCause(err error) *ConsoleError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *ConsoleError) WithDetails(details map[string]any) *ConsoleError {
	e.Details = details
	return e
}
