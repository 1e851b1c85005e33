// Package llm is the provider-neutral interface to generative models used for
// classification, transcription, chat answers and report writing.
package llm

//go:generate mockgen -source=llm.go -destination=mock/mock_client.go -package=mock

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one piece of message content: either text or inline binary data.
type Part struct {
	Text     string
	MimeType string
	Data     []byte
}

// IsInline reports whether the part carries binary data rather than text.
func (p Part) IsInline() bool {
	return len(p.Data) > 0
}

// Message is one turn in a model conversation.
type Message struct {
	Role  Role
	Parts []Part
}

// TextMessage builds a single-part text message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}}
}

// Request describes one generation call.
type Request struct {
	// Operation labels the call for metrics and logs (classify, ocr, chat, report).
	Operation   string
	Model       string
	System      string
	Messages    []Message
	JSON        bool
	Temperature *float32
	MaxTokens   int
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the text produced by the model.
type Response struct {
	Text  string
	Usage Usage
}

// Client generates content from a model.
type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

func (f ClientFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

var (
	// ErrNotConfigured is returned when no provider is configured.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrUnsupportedInput is returned when a provider cannot accept a part's MIME type.
	ErrUnsupportedInput = errors.New("llm input not supported")
	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("llm response empty")
)

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Disabled is the Client used when LLM_PROVIDER=none.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (Response, error) {
	return Response{}, ErrNotConfigured
}

// Float32 returns a pointer to v, for Request.Temperature.
func Float32(v float32) *float32 {
	return &v
}
