package provider

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatibleProvider targets any server speaking the OpenAI
// chat-completions wire format at a custom base URL (spec.md §1's
// "OpenAI-compatible servers").
type OpenAICompatibleProvider struct {
	name   string
	client *openai.Client
	model  string
}

func NewOpenAICompatibleProvider(name, apiKey, baseURL, model string) *OpenAICompatibleProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompatibleProvider{name: name, client: openai.NewClientWithConfig(cfg), model: model}
}

func (p *OpenAICompatibleProvider) Name() string { return p.name }

func (p *OpenAICompatibleProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := ValidateRequest(&req); err != nil {
		return nil, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: convertMessagesToOpenAI(req.Messages),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertToolsToOpenAI(req.Tools)
	}

	logRequest(p.Name(), p.model, len(chatReq.Messages))
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		statusCode := 0
		if apiErr, ok := err.(*openai.APIError); ok {
			statusCode = apiErr.HTTPStatusCode
		}
		return nil, ClassifyError(err, statusCode, "")
	}

	out := convertOpenAIResponse(&resp)
	logResponse(p.Name(), p.model, out.Usage, out.FinishReason)
	return out, nil
}
