package documents

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrFileMissing means the row exists but the stored bytes do not.
	ErrFileMissing = errors.New("file not found")
)

// ValidationError describes a rejected field. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Issue   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, issue, message string) error {
	return &ValidationError{Field: field, Issue: issue, Message: message}
}

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("file too large")
