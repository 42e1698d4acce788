// Package llm provides interfaces and implementations for Large Language Model clients.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model finishes without producing text.
var ErrEmptyResponse = errors.New("empty response from model")

// GenerateOptions configures the LLM generation request.
type GenerateOptions struct {
	// Model specifies the LLM model to use (e.g., "llama3.2", "mistral").
	Model string

	// SystemPrompt sets the system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness in generation. Nil leaves the model's
	// own default in place, which is not zero for most models.
	Temperature *float32

	// MaxTokens limits the maximum number of tokens in the response.
	MaxTokens int

	// JSON asks the model to answer with a single JSON document.
	JSON bool
}

// LLM defines the interface for Large Language Model clients.
type LLM interface {
	// Generate sends a prompt to the LLM and returns the complete response.
	// It blocks until the full response is received or an error occurs. A
	// blank answer is reported as ErrEmptyResponse.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
