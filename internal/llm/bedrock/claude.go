package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/classifier"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/llm"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	contentTypeJSON  = "application/json"
	stopMaxTokens    = "max_tokens"
)

// ErrTruncated is returned when the model ran out of tokens before finishing
// its answer. A cut-off JSON document cannot be parsed, so the call fails.
var ErrTruncated = errors.New("model response truncated at max_tokens")

// Bedrock error codes that clear up on their own.
var transientCodes = map[string]struct{}{
	"ThrottlingException":         {},
	"TooManyRequestsException":    {},
	"ServiceUnavailableException": {},
	"InternalServerException":     {},
	"ModelNotReadyException":      {},
	"ModelTimeoutException":       {},
}

type messagesBody struct {
	AnthropicVersion string        `json:"anthropic_version"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	System           string        `json:"system,omitempty"`
	Messages         []turnMessage `json:"messages"`
}

type turnMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesReply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func newMessagesBody(request llm.LLMRequest) messagesBody {
	return messagesBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		System:           request.System,
		Messages:         []turnMessage{{Role: "user", Content: request.Prompt}},
	}
}

// InvokeModel sends a single-turn prompt to Claude. Throttling and service
// errors are marked transient so the classifier gateway retries them.
func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	body, err := json.Marshal(newMessagesBody(request))
	if err != nil {
		return nil, fmt.Errorf("failed to encode claude request: %w", err)
	}

	output, err := c.Client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.ModelID),
		Body:        body,
		Accept:      aws.String(contentTypeJSON),
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		wrapped := fmt.Errorf("bedrock invoke %s: %w", c.ModelID, err)
		if isTransient(err) {
			return nil, classifier.Transient(wrapped)
		}
		return nil, wrapped
	}

	return parseReply(output.Body)
}

// parseReply joins every text block of the reply in order.
func parseReply(body []byte) (*llm.LLMResponse, error) {
	var reply messagesReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode claude reply: %w", err)
	}
	if reply.StopReason == stopMaxTokens {
		return nil, ErrTruncated
	}

	var sb strings.Builder
	for _, block := range reply.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &llm.LLMResponse{
		Content:    sb.String(),
		StopReason: reply.StopReason,
	}, nil
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := transientCodes[apiErr.ErrorCode()]
		return ok
	}

	msg := err.Error()
	for _, marker := range []string{"connection reset", "EOF", "timeout"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
