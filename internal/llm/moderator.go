package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
)

const moderationSystem = "You are a content moderation service. Answer with a single JSON object and nothing else."

const DefaultModerationPrompt = `Rate the text below for each requested category
using only the severity levels 0 (safe), 2 (low), 4 (medium) or 6 (high).

Categories: {{range $i, $c := .Categories}}{{if $i}}, {{end}}{{$c}}{{end}}
Text: "{{.Text}}"

Respond with JSON only, no prose:
{"categoriesAnalysis": [{"category": "<category>", "severity": <0|2|4|6>}]}`

type moderationResponse struct {
	CategoriesAnalysis []models.CategoryResult `json:"categoriesAnalysis"`
}

// Moderator turns an LLM into a classification backend by prompting it for
// the same response shape the content safety service returns.
type Moderator struct {
	llmClient      LLMClient
	promptTemplate *template.Template
	maxTokens      int
	logger         *zerolog.Logger
}

func NewModerator(llmClient LLMClient, prompt string, maxTokens int, logger *zerolog.Logger) (*Moderator, error) {
	if prompt == "" {
		prompt = DefaultModerationPrompt
	}
	tmpl, err := template.New("moderation").Parse(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse moderation prompt template: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}

	return &Moderator{
		llmClient:      llmClient,
		promptTemplate: tmpl,
		maxTokens:      maxTokens,
		logger:         logger,
	}, nil
}

// Analyze implements classifier.Backend. Severity values are passed through
// untouched; the gateway rejects anything outside the declared levels.
func (m *Moderator) Analyze(ctx context.Context, request models.ClassificationRequest) ([]models.CategoryResult, error) {
	var buf bytes.Buffer
	if err := m.promptTemplate.Execute(&buf, request); err != nil {
		return nil, fmt.Errorf("template execution failed: %w", err)
	}

	resp, err := m.llmClient.InvokeModel(ctx, LLMRequest{
		System:      moderationSystem,
		Prompt:      buf.String(),
		MaxTokens:   m.maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}

	content := stripMarkdownCodeBlock(resp.Content)
	var parsed moderationResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		m.logger.Error().
			Err(err).
			Str("content", resp.Content).
			Msg("failed to deserialize LLM moderation response")
		return nil, fmt.Errorf("invalid LLM moderation response: %w", err)
	}

	return parsed.CategoriesAnalysis, nil
}

// stripMarkdownCodeBlock removes markdown code block formatting if present
func stripMarkdownCodeBlock(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		firstNewline := strings.Index(content, "\n")
		if firstNewline == -1 {
			return content
		}

		closingBackticks := strings.LastIndex(content, "```")
		if closingBackticks == -1 || closingBackticks <= firstNewline {
			return content
		}

		content = strings.TrimSpace(content[firstNewline+1 : closingBackticks])
	}

	return content
}
