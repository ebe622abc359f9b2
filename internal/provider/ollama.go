package provider

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OllamaProvider targets a local Ollama instance through its
// OpenAI-compatible `/v1` endpoint, the same wire format as
// OpenAICompatibleProvider with a fixed default base URL.
type OllamaProvider struct {
	inner *OpenAICompatibleProvider
}

const defaultOllamaBaseURL = "http://localhost:11434/v1"

func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = baseURL
	return &OllamaProvider{inner: &OpenAICompatibleProvider{
		name:   "ollama",
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	return p.inner.Chat(ctx, req)
}
