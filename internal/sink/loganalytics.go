package sink

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

const (
	logAnalyticsAPIVersion = "2016-04-01"
	logAnalyticsResource   = "/api/logs"
	DefaultLogType         = "RockBandNameChecks"
)

// LogAnalyticsConfig configures the Azure Monitor HTTP Data Collector exporter.
type LogAnalyticsConfig struct {
	WorkspaceID string
	SharedKey   string
	LogType     string
	// Endpoint overrides https://{workspace}.ods.opinsights.azure.com
	Endpoint string
	Timeout  time.Duration
}

// LogAnalyticsSink buffers records and posts them as one signed JSON batch on Flush.
type LogAnalyticsSink struct {
	cfg        LogAnalyticsConfig
	key        []byte
	httpClient *http.Client
	now        func() time.Time

	mu      sync.Mutex
	pending []models.BatchRecord
}

func NewLogAnalyticsSink(cfg LogAnalyticsConfig) (*LogAnalyticsSink, error) {
	if cfg.WorkspaceID == "" {
		return nil, fmt.Errorf("log analytics workspace id is required")
	}
	key, err := base64.StdEncoding.DecodeString(cfg.SharedKey)
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("log analytics shared key must be non-empty base64")
	}
	if cfg.LogType == "" {
		cfg.LogType = DefaultLogType
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = fmt.Sprintf("https://%s.ods.opinsights.azure.com", cfg.WorkspaceID)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &LogAnalyticsSink{
		cfg:        cfg,
		key:        key,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}, nil
}

func (s *LogAnalyticsSink) Name() string {
	return "log_analytics"
}

func (s *LogAnalyticsSink) Write(ctx context.Context, record models.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, record)
	return nil
}

// Flush posts every pending record. The buffer is kept on failure so a later
// Flush can retry.
func (s *LogAnalyticsSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	body, err := json.Marshal(s.pending)
	if err != nil {
		return fmt.Errorf("marshal log records: %w", err)
	}

	if err := s.post(ctx, body); err != nil {
		return err
	}

	s.pending = nil
	return nil
}

func (s *LogAnalyticsSink) post(ctx context.Context, body []byte) error {
	const contentType = "application/json"
	date := s.now().UTC().Format(http.TimeFormat)

	url := fmt.Sprintf("%s%s?api-version=%s", strings.TrimRight(s.cfg.Endpoint, "/"), logAnalyticsResource, logAnalyticsAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", BuildSignature(s.cfg.WorkspaceID, s.key, date, len(body), http.MethodPost, contentType, logAnalyticsResource))
	req.Header.Set("Log-Type", s.cfg.LogType)
	req.Header.Set("x-ms-date", date)
	req.Header.Set("time-generated-field", "timestamp")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post log records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("log analytics returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}

// BuildSignature computes the SharedKey authorization header value.
func BuildSignature(workspaceID string, key []byte, date string, contentLength int, method, contentType, resource string) string {
	stringToHash := fmt.Sprintf("%s\n%d\n%s\nx-ms-date:%s\n%s", method, contentLength, contentType, date, resource)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(stringToHash))
	encoded := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedKey %s:%s", workspaceID, encoded)
}
