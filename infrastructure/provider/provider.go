// Package provider implements the external embedding and text-generation
// services (OpenAI and Gemini).
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docvecdev/docvec/domain/search"
)

// ErrUnsupportedOperation indicates the provider does not support the
// requested operation.
var ErrUnsupportedOperation = errors.New("unsupported provider operation")

// ProviderError wraps a provider API failure with operation context.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.statusCode != 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.operation, e.message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.cause }

// StatusCode returns the HTTP status code (0 if not applicable).
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Operation returns the failed operation name.
func (e *ProviderError) Operation() string { return e.operation }

// Message is one chat message.
type Message struct {
	role    string
	content string
}

// SystemMessage creates a system-role message.
func SystemMessage(content string) Message {
	return Message{role: "system", content: content}
}

// UserMessage creates a user-role message.
func UserMessage(content string) Message {
	return Message{role: "user", content: content}
}

// Role returns the message role.
func (m Message) Role() string { return m.role }

// Content returns the message content.
func (m Message) Content() string { return m.content }

// ChatCompletionRequest describes one chat completion call.
type ChatCompletionRequest struct {
	messages    []Message
	maxTokens   int
	temperature float64
}

// NewChatCompletionRequest creates a ChatCompletionRequest.
func NewChatCompletionRequest(messages []Message) ChatCompletionRequest {
	copied := make([]Message, len(messages))
	copy(copied, messages)
	return ChatCompletionRequest{messages: copied}
}

// WithMaxTokens returns a copy with the given token limit.
func (r ChatCompletionRequest) WithMaxTokens(n int) ChatCompletionRequest {
	r.maxTokens = n
	return r
}

// WithTemperature returns a copy with the given temperature.
func (r ChatCompletionRequest) WithTemperature(t float64) ChatCompletionRequest {
	r.temperature = t
	return r
}

// Messages returns the messages (copy).
func (r ChatCompletionRequest) Messages() []Message {
	copied := make([]Message, len(r.messages))
	copy(copied, r.messages)
	return copied
}

// MaxTokens returns the token limit (0 means provider default).
func (r ChatCompletionRequest) MaxTokens() int { return r.maxTokens }

// Temperature returns the temperature (0 means provider default).
func (r ChatCompletionRequest) Temperature() float64 { return r.temperature }

// ChatCompletionResponse is the result of one chat completion call.
type ChatCompletionResponse struct {
	content      string
	finishReason string
}

// NewChatCompletionResponse creates a ChatCompletionResponse.
func NewChatCompletionResponse(content, finishReason string) ChatCompletionResponse {
	return ChatCompletionResponse{content: content, finishReason: finishReason}
}

// Content returns the generated text.
func (r ChatCompletionResponse) Content() string { return r.content }

// FinishReason returns the completion finish reason.
func (r ChatCompletionResponse) FinishReason() string { return r.finishReason }

// TextGenerator generates chat completions; the snippet extractor consumes
// this interface.
type TextGenerator interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

// validateTexts rejects empty batches and blank entries before any network
// call is made.
func validateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts given", search.ErrEmptyInput)
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: text %d is blank", search.ErrEmptyInput, i)
		}
	}
	return nil
}
