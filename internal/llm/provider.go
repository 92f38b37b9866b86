// Package llm implements the decision oracle: a provider-neutral completion
// interface, the concrete providers, and a validating JSON decoder that turns
// free-form model output into typed stage decisions.
package llm

import (
	"context"
	"errors"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw model text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one oracle consultation
type CompletionRequest struct {
	// Caller names the consulting component (used for logs and rate keys)
	Caller string

	// System is an optional system prompt (if empty, use DefaultSystemPrompt)
	System string

	// Prompt is the user prompt
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse contains the raw model output
type CompletionResponse struct {
	// Text is the generated text, expected to hold a JSON object
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultSystemPrompt asks every provider for a bare JSON object
const DefaultSystemPrompt = "You are an insurance claims processing assistant. Always respond with a single valid JSON object and nothing else."

// ErrNoProvider is returned when no provider is configured
var ErrNoProvider = errors.New("no LLM provider configured")

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "ollama",
		Model:       "qwen3:0.6b",
		Timeout:     120,
		MaxTokens:   1024,
		Temperature: 0.1,
	}
}

// resolve fills request defaults from the provider config
func (c Config) resolve(req CompletionRequest, defaultModel string) (system, model string, maxTokens int) {
	system = req.System
	if system == "" {
		system = DefaultSystemPrompt
	}

	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}
	return system, model, maxTokens
}
