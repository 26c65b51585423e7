package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
)

type MockLLMClient struct {
	ResponseToReturn *LLMResponse
	ErrorToReturn    error
	WasCalled        bool
	LastRequest      *LLMRequest
}

func (m *MockLLMClient) InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error) {
	m.WasCalled = true
	m.LastRequest = &request
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}
	return m.ResponseToReturn, nil
}

func TestModerator_Analyze_Success(t *testing.T) {
	logger := zerolog.Nop()
	client := &MockLLMClient{
		ResponseToReturn: &LLMResponse{
			Content: "```json\n{\"categoriesAnalysis\":[{\"category\":\"Hate\",\"severity\":0},{\"category\":\"Violence\",\"severity\":4}]}\n```",
		},
	}

	moderator, err := NewModerator(client, "", 0, &logger)
	if err != nil {
		t.Fatalf("NewModerator failed: %v", err)
	}

	results, err := moderator.Analyze(context.Background(), models.ClassificationRequest{
		Text:       "Death Metal Kittens",
		Categories: []models.Category{models.CategoryHate, models.CategoryViolence},
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !client.WasCalled {
		t.Fatal("expected LLM client to be called")
	}
	if !strings.Contains(client.LastRequest.Prompt, "Hate, Violence") {
		t.Errorf("prompt should list categories, got: %s", client.LastRequest.Prompt)
	}
	if !strings.Contains(client.LastRequest.Prompt, "Death Metal Kittens") {
		t.Errorf("prompt should contain the text, got: %s", client.LastRequest.Prompt)
	}
	if client.LastRequest.System == "" {
		t.Error("expected a system instruction")
	}
	if client.LastRequest.MaxTokens != 256 {
		t.Errorf("expected default max tokens 256, got %d", client.LastRequest.MaxTokens)
	}

	if len(results) != 2 || results[1].Severity != models.SeverityMedium {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestModerator_Analyze_InvalidJSON(t *testing.T) {
	logger := zerolog.Nop()
	client := &MockLLMClient{ResponseToReturn: &LLMResponse{Content: "I cannot rate this."}}

	moderator, _ := NewModerator(client, "", 128, &logger)
	_, err := moderator.Analyze(context.Background(), models.ClassificationRequest{Text: "x"})
	if err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestModerator_Analyze_PropagatesClientError(t *testing.T) {
	logger := zerolog.Nop()
	boom := errors.New("boom")
	client := &MockLLMClient{ErrorToReturn: boom}

	moderator, _ := NewModerator(client, "", 128, &logger)
	_, err := moderator.Analyze(context.Background(), models.ClassificationRequest{Text: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("expected client error, got %v", err)
	}
}

func TestNewModerator_InvalidTemplate(t *testing.T) {
	logger := zerolog.Nop()
	if _, err := NewModerator(&MockLLMClient{}, "{{.Invalid", 0, &logger); err == nil {
		t.Error("expected error for invalid template")
	}
}
