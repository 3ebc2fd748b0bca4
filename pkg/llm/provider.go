package llm

import (
	"context"
	"iter"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Image is an inline image for vision requests.
type Image struct {
	Data     []byte
	MimeType string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
	JSON        bool   // Ask the model for a JSON object only
}

func NewOptions(defaultTemperature float64, opts ...Option) *Options {
	options := &Options{Temperature: defaultTemperature}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithJSONResponse() Option {
	return func(o *Options) {
		o.JSON = true
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// Stream yields the answer incrementally. Iteration stops at the first error.
	Stream(ctx context.Context, history []Message, options ...Option) iter.Seq2[string, error]

	// Vision asks a vision-capable model about one or more images.
	Vision(ctx context.Context, prompt string, images []Image, options ...Option) (string, error)
}
