package report

import "errors"

var (
	// ErrNoDocuments means the user has nothing to report on.
	ErrNoDocuments      = errors.New("no documents")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInvalidInput     = errors.New("invalid input")
)
