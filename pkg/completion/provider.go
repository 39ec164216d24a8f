// Package completion calls the remote text-generation service with an
// assembled prompt and exposes the reply text through a fixed fallback
// chain.
package completion

import (
	"context"
	"fmt"
	"strings"
)

// NoResponseFallback is returned as reply text when the provider response
// carries no usable content.
const NoResponseFallback = "No response from model"

// Client is an interface for completion providers.
type Client interface {
	// Generate sends the prompt and returns the raw provider response.
	Generate(ctx context.Context, prompt string) (*Response, error)

	// Provider returns the provider name.
	Provider() string
}

// Response is the provider response. Candidates carry the structured
// content; Text is the aggregate accessor providers without a candidate
// structure fill in.
type Response struct {
	Candidates []Candidate
	Text       string
}

// Candidate is one structured completion candidate.
type Candidate struct {
	Content Content
}

// Content holds the candidate's content parts.
type Content struct {
	Parts []Part
}

// Part is one content fragment.
type Part struct {
	Text string
}

// ReplyText extracts the reply: first candidate's first part, else the
// aggregate text, else a fixed fallback. Mirrors the contract clients of
// this service have always depended on.
func (r *Response) ReplyText() string {
	if r != nil && len(r.Candidates) > 0 {
		content := r.Candidates[0].Content
		if len(content.Parts) > 0 && content.Parts[0].Text != "" {
			return content.Parts[0].Text
		}
	}
	if r != nil && r.Text != "" {
		return r.Text
	}
	return NoResponseFallback
}

// Config holds the settings shared by all providers.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	MaxRetries int
}

// NewClient creates a completion client for the configured provider,
// wrapped with bounded retry when MaxRetries > 0.
func NewClient(cfg Config) (Client, error) {
	var client Client

	switch cfg.Provider {
	case "gemini":
		client = NewGeminiClient(cfg.APIKey, cfg.Model)
	case "openai":
		client = NewOpenAIClient(cfg.APIKey, cfg.Model)
	case "anthropic":
		client = NewAnthropicClient(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	if cfg.MaxRetries > 0 {
		client = WithRetry(client, cfg.MaxRetries)
	}

	return client, nil
}

// IsRetryableError reports whether a provider error is worth retrying.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	// Network errors
	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "timeout") {
		return true
	}

	// Rate limits
	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") {
		return true
	}

	// Server errors
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}

	return false
}
