package setup

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/config"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func testChecker(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Checker.OutputDir = t.TempDir()
	cfg.Checker.Categories = []string{"Hate", "Violence", "SelfHarm", "Sexual"}
	cfg.Checker.Workers = 1
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.BaseDelay = time.Second
	return &cfg
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CLASSIFIER_PROVIDER", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("SECRETS_PROVIDER", "")

	cfg := LoadConfig()
	if cfg.ClassifierProvider != ProviderContentSafety {
		t.Errorf("expected default provider %s, got %s", ProviderContentSafety, cfg.ClassifierProvider)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", cfg.RequestTimeout)
	}
	if cfg.SecretsProvider != SecretsEnv {
		t.Errorf("expected env secrets by default, got %s", cfg.SecretsProvider)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CLASSIFIER_PROVIDER", "bedrock")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("RESULTS_STREAM_MAXLEN", "50")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")

	cfg := LoadConfig()
	if cfg.ClassifierProvider != ProviderBedrock || cfg.RequestTimeout != 3*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.StreamMaxLen != 50 || cfg.OTLPInsecure {
		t.Errorf("unexpected stream/otel config %+v", cfg)
	}
}

func TestWire_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		env     map[string]string
		setting string
	}{
		{
			name:    "missing endpoint",
			cfg:     Config{ClassifierProvider: ProviderContentSafety},
			env:     map[string]string{"CONTENT_SAFETY_API_KEY": "key"},
			setting: "CONTENT_SAFETY_ENDPOINT",
		},
		{
			name:    "missing api key",
			cfg:     Config{ClassifierProvider: ProviderContentSafety, ContentSafetyEndpoint: "https://cs.example.com"},
			env:     map[string]string{"CONTENT_SAFETY_API_KEY": ""},
			setting: "CONTENT_SAFETY_API_KEY",
		},
		{
			name:    "unknown provider",
			cfg:     Config{ClassifierProvider: "openai"},
			setting: "CLASSIFIER_PROVIDER",
		},
		{
			name:    "unknown secrets provider",
			cfg:     Config{SecretsProvider: "vault"},
			setting: "SECRETS_PROVIDER",
		},
		{
			name:    "stream without redis",
			cfg:     Config{ContentSafetyEndpoint: "https://cs.example.com", ResultsStream: "results"},
			env:     map[string]string{"CONTENT_SAFETY_API_KEY": "key"},
			setting: "REDIS_ADDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := tt.cfg
			_, err := Wire(context.Background(), &cfg, Options{Checker: testChecker(t)}, newTestLogger())
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) || cfgErr.Setting != tt.setting {
				t.Errorf("expected setting %s, got %v", tt.setting, err)
			}
		})
	}
}

func TestWire_InvalidChecker(t *testing.T) {
	checker := testChecker(t)
	checker.Checker.Threshold = 5

	cfg := Config{ContentSafetyEndpoint: "https://cs.example.com"}
	_, err := Wire(context.Background(), &cfg, Options{Checker: checker}, newTestLogger())
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestWire_Success(t *testing.T) {
	t.Setenv("CONTENT_SAFETY_API_KEY", "key")

	cfg := Config{
		ClassifierProvider:    ProviderContentSafety,
		ContentSafetyEndpoint: "https://cs.example.com",
		RequestTimeout:        time.Second,
	}
	var console bytes.Buffer
	deps, err := Wire(context.Background(), &cfg, Options{
		Console:   &console,
		CSV:       true,
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Checker:   testChecker(t),
	}, newTestLogger())
	if err != nil {
		t.Fatalf("Wire failed: %v", err)
	}
	defer deps.Close(context.Background())

	names := deps.Publisher.Names()
	if len(names) != 2 || names[0] != "console" || names[1] != "csv" {
		t.Errorf("expected console and csv sinks, got %v", names)
	}
	if deps.CSV == nil {
		t.Error("expected CSV sink to be exposed")
	}
	if deps.Integrations["Log Analytics"] || deps.Integrations["Metrics"] {
		t.Errorf("optional integrations should be disabled, got %v", deps.Integrations)
	}
	if deps.Executor == nil || deps.Pipeline == nil || deps.Gateway == nil {
		t.Error("expected pipeline components to be wired")
	}
}

func TestDependencies_Request(t *testing.T) {
	deps := &Dependencies{Checker: testChecker(t)}

	single := deps.Request([]string{"a", "b"}, false)
	if len(single.Policy.Overrides) != 0 {
		t.Error("override rules must not apply outside variants mode")
	}
	if len(single.Categories) != 4 {
		t.Errorf("expected 4 categories, got %v", single.Categories)
	}

	variants := deps.Request([]string{"a"}, true)
	if len(variants.Policy.Overrides) != 1 {
		t.Errorf("expected hate-keyword override in variants mode, got %v", variants.Policy.Overrides)
	}
}
