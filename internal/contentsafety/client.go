package contentsafety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/classifier"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

const (
	DefaultAPIVersion = "2024-09-01"
	outputType        = "FourSeverityLevels"
	analyzePath       = "/contentsafety/text:analyze"
)

type analyzeTextRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories,omitempty"`
	OutputType string   `json:"outputType"`
}

type categoryAnalysis struct {
	Category string `json:"category"`
	Severity *int   `json:"severity"`
}

type analyzeTextResponse struct {
	CategoriesAnalysis []categoryAnalysis `json:"categoriesAnalysis"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("content safety returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("content safety returned status %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= http.StatusInternalServerError
}

// Client calls the Azure AI Content Safety text analysis endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
}

func NewClient(endpoint string, apiKey string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("content safety endpoint is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("content safety API key is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Analyze implements classifier.Backend. Throttling, 5xx and transport failures
// come back marked transient.
func (c *Client) Analyze(ctx context.Context, request models.ClassificationRequest) ([]models.CategoryResult, error) {
	categories := make([]string, len(request.Categories))
	for i, category := range request.Categories {
		categories[i] = string(category)
	}

	body, err := json.Marshal(analyzeTextRequest{
		Text:       request.Text,
		Categories: categories,
		OutputType: outputType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s%s?api-version=%s", c.endpoint, analyzePath, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifier.Transient(fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := newStatusError(resp)
		if statusErr.Temporary() {
			return nil, classifier.Transient(statusErr)
		}
		return nil, statusErr
	}

	var result analyzeTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]models.CategoryResult, 0, len(result.CategoriesAnalysis))
	for _, analysis := range result.CategoriesAnalysis {
		if analysis.Severity == nil {
			return nil, fmt.Errorf("%w: %s has no severity", classifier.ErrUnexpectedSeverity, analysis.Category)
		}
		out = append(out, models.CategoryResult{
			Category: models.Category(analysis.Category),
			Severity: models.Severity(*analysis.Severity),
		})
	}

	return out, nil
}

func newStatusError(resp *http.Response) *StatusError {
	statusErr := &StatusError{StatusCode: resp.StatusCode}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return statusErr
	}

	var payload errorResponse
	if err := json.Unmarshal(respBody, &payload); err == nil && payload.Error.Code != "" {
		statusErr.Code = payload.Error.Code
		statusErr.Message = payload.Error.Message
		return statusErr
	}

	statusErr.Message = strings.TrimSpace(string(respBody))
	return statusErr
}
