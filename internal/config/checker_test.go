package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checker.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoadCheckerConfig_Success(t *testing.T) {
	path := writeConfig(t, `checker:
  categories: [hate, Violence]
  threshold: 4
  workers: 3
  variants: true
  output_dir: out

retry:
  max_attempts: 5
  base_delay: 250ms

overrides:
  - name: hate-keyword
    enabled: true
    keywords: ["hate"]
  - name: gore
    enabled: false
    keywords: ["gore"]
`)

	cfg, err := LoadCheckerConfig(path)
	if err != nil {
		t.Fatalf("LoadCheckerConfig() failed: %v", err)
	}

	categories, _ := cfg.CategoryList()
	if len(categories) != 2 || categories[0] != models.CategoryHate {
		t.Errorf("Expected [Hate Violence], got %v", categories)
	}
	if cfg.Threshold() != models.SeverityMedium {
		t.Errorf("Expected threshold 4, got %d", cfg.Threshold())
	}
	if cfg.Checker.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Checker.Workers)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelay != 250*time.Millisecond {
		t.Errorf("Unexpected retry settings %+v", cfg.Retry)
	}
	if cfg.LLM.MaxTokens != 256 {
		t.Errorf("Expected default max_tokens=256, got %d", cfg.LLM.MaxTokens)
	}

	rules := cfg.OverrideRules()
	if len(rules) != 1 || rules[0].Name() != "hate-keyword" {
		t.Errorf("Expected only the enabled rule, got %v", rules)
	}
}

func TestLoadCheckerConfig_Defaults(t *testing.T) {
	cfg, err := LoadCheckerConfig(writeConfig(t, "checker:\n  variants: false\n"))
	if err != nil {
		t.Fatalf("LoadCheckerConfig() failed: %v", err)
	}

	if len(cfg.Checker.Categories) != 4 {
		t.Errorf("Expected all 4 categories by default, got %v", cfg.Checker.Categories)
	}
	if cfg.Threshold() != models.SeveritySafe {
		t.Errorf("Expected default threshold 0, got %d", cfg.Threshold())
	}
	if cfg.Checker.Workers != 1 || cfg.Retry.MaxAttempts != 3 || cfg.Retry.BaseDelay != time.Second {
		t.Errorf("Unexpected defaults %+v %+v", cfg.Checker, cfg.Retry)
	}
	if len(cfg.OverrideRules()) != 0 {
		t.Error("Expected no override rules when none configured")
	}
}

func TestLoadCheckerConfig_EnvPath(t *testing.T) {
	path := writeConfig(t, "checker:\n  threshold: 2\n")
	t.Setenv("CHECKER_CONFIG_PATH", path)

	cfg, err := LoadCheckerConfig("")
	if err != nil {
		t.Fatalf("LoadCheckerConfig() failed: %v", err)
	}
	if cfg.Threshold() != models.SeverityLow {
		t.Errorf("Expected threshold 2 from env path, got %d", cfg.Threshold())
	}
}

func TestLoadCheckerConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadCheckerConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config")
	}
}

func TestLoadCheckerConfig_MissingDefaultFileUsesBuiltins(t *testing.T) {
	t.Setenv("CHECKER_CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadCheckerConfig("")
	if err != nil {
		t.Fatalf("LoadCheckerConfig() failed: %v", err)
	}
	if !cfg.Checker.Variants {
		t.Error("Expected variants enabled in built-in defaults")
	}
	rules := cfg.OverrideRules()
	if len(rules) != 1 || rules[0].Name() != "hate-keyword" {
		t.Errorf("Expected built-in hate-keyword rule, got %v", rules)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown category", "checker:\n  categories: [Spam]\n", "unknown category"},
		{"invalid threshold", "checker:\n  threshold: 3\n", "threshold"},
		{"negative workers", "checker:\n  workers: -1\n", "workers"},
		{"negative attempts", "retry:\n  max_attempts: -2\n", "max_attempts"},
		{"unnamed rule", "overrides:\n  - enabled: true\n    keywords: [x]\n", "name is required"},
		{"duplicate rule", "overrides:\n  - name: a\n    keywords: [x]\n  - name: a\n    keywords: [y]\n", "duplicate"},
		{"enabled rule without keywords", "overrides:\n  - name: a\n    enabled: true\n", "no keywords"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCheckerConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
