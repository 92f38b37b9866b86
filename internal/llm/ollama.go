package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const ollamaDefaultModel = "qwen3:0.6b"

// OllamaProvider talks to a local Ollama chat endpoint in JSON mode
type OllamaProvider struct {
	api    *jsonClient
	config Config
}

type ollamaChat struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaReply struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

// NewOllamaProvider needs no key; local models get a long timeout
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	api := newJSONClient(config, "http://localhost:11434", 120*time.Second)
	api.errorText = func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return e.Error
	}
	return &OllamaProvider{api: api, config: config}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable lists local models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.api.ping(ctx, "/api/tags")
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	system, model, maxTokens := p.config.resolve(req, ollamaDefaultModel)

	var out ollamaReply
	err := p.api.post(ctx, "/api/chat", ollamaChat{
		Model: model,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		Format:  "json",
		Options: ollamaOptions{Temperature: p.config.Temperature, NumPredict: maxTokens},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	text := strings.TrimSpace(out.Message.Content)

	// Some models report no counts; fall back to four bytes per token
	tokens := out.PromptEvalCount + out.EvalCount
	if tokens == 0 {
		tokens = (len(req.Prompt) + len(text)) / 4
	}

	return &CompletionResponse{Text: text, Model: out.Model, TokensUsed: tokens}, nil
}
