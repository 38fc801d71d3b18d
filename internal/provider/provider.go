// Package provider abstracts the text-generation backend that powers
// debaters and judges. The concrete implementation speaks the Anthropic
// Messages API; a retry wrapper adds spacing, backoff, and per-attempt
// timeouts around any Client.
package provider

import (
	"context"

	"github.com/avandyck/rostrum/internal/config"
)

// Message roles accepted by the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn sent to the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one generation call.
type Request struct {
	// Model overrides the client's default model when non-empty.
	Model string
	// System is the system prompt framing the speaker's role.
	System string
	// Messages are the conversation turns, oldest first.
	Messages []Message
	// MaxTokens overrides the client's default token budget when positive.
	MaxTokens int
	// OnDelta, when set, enables streaming. It is called once per text
	// fragment in arrival order, before Generate returns the full text.
	OnDelta func(text string)
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Result is the outcome of a generation call.
type Result struct {
	MessageID  string // Backend's id for the generated message
	Text       string // Full generated text
	Model      string // Model that produced the text
	StopReason string // Why generation stopped (e.g. "end_turn")
	Usage      Usage  // Token usage
}

// Client generates text from a model backend.
type Client interface {
	// Generate produces text for the request. A stream that ends without
	// content is an error, never an empty success.
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Factory builds a ready-to-use client for one logical speaker from its
// credential. The production factory wraps an Anthropic client with retry
// handling; tests substitute scripted fakes through the same type.
type Factory func(apiKey, model string) (Client, error)

// NewFactory returns a Factory that builds retry-wrapped Anthropic clients
// using the given provider configuration. An empty model falls back to the
// configured default.
func NewFactory(cfg config.ProviderConfig) Factory {
	return func(apiKey, model string) (Client, error) {
		if model == "" {
			model = cfg.Model
		}

		client, err := NewAnthropicClient(apiKey,
			WithBaseURL(cfg.BaseURL),
			WithModel(model),
			WithMaxTokens(cfg.MaxTokens),
		)
		if err != nil {
			return nil, err
		}

		return NewRetryClient(client, RetryConfig{
			MaxRetries:     cfg.MaxRetries,
			BaseDelay:      cfg.RetryBaseDelay(),
			MaxDelay:       cfg.RetryMaxDelay(),
			MinInterval:    cfg.MinRequestInterval(),
			AttemptTimeout: cfg.RequestTimeout(),
		}), nil
	}
}
