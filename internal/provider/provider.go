// Package provider defines the LLMProvider contract the agent loop consumes
// and the shared error-classification helpers used by adapters. Nothing in
// this package retries a failed request.
package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role is the tagged-variant role of a ChatMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolInvocation is a structured tool call produced by the model. ID is an
// opaque correlation token the provider uses to pair invocations with their
// results in the wire protocol.
type ToolInvocation struct {
	ID            string
	Name          string
	ArgumentsJSON string
}

// ChatMessage is one entry of the neutral transcript the loop maintains.
// An assistant message may carry ToolInvocations; a tool message carries
// ToolCallID (echoing the invocation it answers) and Content as the
// outputSummary text.
type ChatMessage struct {
	Role            Role
	Content         string
	ToolInvocations []ToolInvocation
	ToolCallID      string
}

// ToolSchema describes one callable tool in provider-neutral form.
type ToolSchema struct {
	Name           string
	Description    string
	ArgumentSchema map[string]interface{}
}

// ChatRequest is the single request shape the loop sends to a provider.
type ChatRequest struct {
	Messages    []ChatMessage
	Tools       []ToolSchema
	ToolChoice  string // "auto" | "none"; providers that lack the concept ignore it
	Temperature float64
	MaxTokens   int
}

// FinishReason classifies how the model ended its turn.
type FinishReason string

const (
	FinishToolCalls FinishReason = "tool_calls"
	FinishStop      FinishReason = "stop"
	FinishUnknown   FinishReason = "unknown"
)

// ChatResponse is the single synchronous response shape every adapter
// normalizes into. Exactly one of AssistantText or ToolInvocations is
// meaningful depending on FinishReason, mirroring the loop's tagged
// classification of ToolCalls | Done | Unexpected responses.
type ChatResponse struct {
	AssistantText   string
	ToolInvocations []ToolInvocation
	Usage           Usage
	FinishReason    FinishReason
}

// Usage tracks token accounting returned alongside a response.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// LLMProvider is the external-collaborator contract (C6). A single
// synchronous operation maps the neutral transcript and tool schemas to the
// provider's wire format and back. No streaming; the caller owns timeouts
// via ctx.
type LLMProvider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ErrorType classifies a provider failure for retry/termination decisions.
type ErrorType string

const (
	ErrorTypeContextOverflow ErrorType = "context_overflow"
	ErrorTypeAPIError        ErrorType = "api_error"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeAuth            ErrorType = "auth_error"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeTimeout         ErrorType = "timeout"
)

// ClassifiedError wraps a provider error with its classification. The loop
// does not retry on a ClassifiedError (spec's Agent Loop terminates on
// ProviderError) but the classification lets callers distinguish failure
// kinds in logs and in the returned error string.
type ClassifiedError struct {
	Type        ErrorType
	Message     string
	StatusCode  int
	IsRetryable bool
	RetryAfter  time.Duration
	Original    error
}

func (e *ClassifiedError) Error() string { return e.Message }
func (e *ClassifiedError) Unwrap() error { return e.Original }

var overflowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`prompt is too long`),
	regexp.MustCompile(`exceeds the model'?s maximum context`),
	regexp.MustCompile(`content exceeds model token limit`),
	regexp.MustCompile(`maximum context length`),
	regexp.MustCompile(`context_length_exceeded`),
	regexp.MustCompile(`max_tokens.*exceeds.*limit`),
	regexp.MustCompile(`(?i)context.*(?:too long|overflow|exceeded|limit)`),
	regexp.MustCompile(`(?i)token.*(?:limit|exceeded|maximum)`),
	regexp.MustCompile(`context size exceeded`),
}

// IsContextOverflow reports whether msg matches a known context-overflow
// signature across the providers this package targets.
func IsContextOverflow(msg string) bool {
	for _, pat := range overflowPatterns {
		if pat.MatchString(msg) {
			return true
		}
	}
	return false
}

// ClassifyError classifies a raw provider error using its HTTP status (if
// any) and response body text.
func ClassifyError(err error, statusCode int, responseBody string) *ClassifiedError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*ClassifiedError); ok {
		return ce
	}

	msg := err.Error()
	if responseBody != "" {
		msg = msg + " " + responseBody
	}

	if IsContextOverflow(msg) {
		return &ClassifiedError{
			Type:        ErrorTypeContextOverflow,
			Message:     "context window exceeded",
			StatusCode:  statusCode,
			IsRetryable: false,
			Original:    err,
		}
	}

	lowerMsg := strings.ToLower(msg)
	switch {
	case statusCode == 429 || strings.Contains(lowerMsg, "rate_limit") || strings.Contains(lowerMsg, "too_many_requests"):
		return &ClassifiedError{Type: ErrorTypeRateLimit, Message: "rate limited by provider", StatusCode: statusCode, IsRetryable: true, Original: err}
	case statusCode == 401 || statusCode == 403:
		return &ClassifiedError{Type: ErrorTypeAuth, Message: fmt.Sprintf("authentication error (%d): %s", statusCode, err.Error()), StatusCode: statusCode, IsRetryable: false, Original: err}
	case statusCode == 404:
		return &ClassifiedError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("model or endpoint not found: %s", err.Error()), StatusCode: statusCode, IsRetryable: true, Original: err}
	case statusCode >= 500:
		return &ClassifiedError{Type: ErrorTypeAPIError, Message: fmt.Sprintf("provider server error (%d): %s", statusCode, err.Error()), StatusCode: statusCode, IsRetryable: true, Original: err}
	case strings.Contains(lowerMsg, "overloaded") || strings.Contains(lowerMsg, "unavailable"):
		return &ClassifiedError{Type: ErrorTypeAPIError, Message: "provider is overloaded", StatusCode: statusCode, IsRetryable: true, Original: err}
	default:
		return &ClassifiedError{Type: ErrorTypeAPIError, Message: err.Error(), StatusCode: statusCode, IsRetryable: false, Original: err}
	}
}

// CreateProvider constructs one of the four in-scope providers
// (spec.md §1): anthropic, openai, ollama, or anything else as an
// OpenAI-compatible server reachable at baseURL.
func CreateProvider(name, apiKey, baseURL, model string) (LLMProvider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(apiKey, model), nil
	case "openai":
		return NewOpenAIProvider(apiKey, model), nil
	case "ollama":
		return NewOllamaProvider(baseURL, model), nil
	default:
		return NewOpenAICompatibleProvider(name, apiKey, baseURL, model), nil
	}
}
