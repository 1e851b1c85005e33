package chat

import "errors"

var (
	ErrNotFound     = errors.New("conversation not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrModelUnavailable wraps any failure of the generative model call.
	ErrModelUnavailable = errors.New("model unavailable")
)
