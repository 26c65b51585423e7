package llm

import (
	"context"
)

// LLMClient invokes a hosted model. The moderator depends on this interface
// so tests can replace Bedrock.
type LLMClient interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
}

type LLMRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type LLMResponse struct {
	Content    string
	StopReason string
}
