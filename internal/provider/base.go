package provider

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ValidateRequest performs basic validation on a ChatRequest before it is
// translated to a provider's wire format.
func ValidateRequest(req *ChatRequest) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	if req.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	return nil
}

func logRequest(providerName, model string, messageCount int) {
	log.Debug().Str("provider", providerName).Str("model", model).Int("messages", messageCount).Msg("provider chat request")
}

func logResponse(providerName, model string, usage Usage, finish FinishReason) {
	log.Debug().Str("provider", providerName).Str("model", model).
		Int("input_tokens", usage.InputTokens).Int("output_tokens", usage.OutputTokens).
		Str("finish_reason", string(finish)).Msg("provider chat response")
}
