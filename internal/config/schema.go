package config

import "time"

// Config represents the checker policy loaded from YAML
type Config struct {
	Checker   CheckerSettings `yaml:"checker"`
	Retry     RetrySettings   `yaml:"retry"`
	Overrides []OverrideRule  `yaml:"overrides"`
	LLM       LLMSettings     `yaml:"llm"`
}

// CheckerSettings holds the classification and batch options
type CheckerSettings struct {
	Categories []string `yaml:"categories"`
	Threshold  int      `yaml:"threshold"`
	Workers    int      `yaml:"workers"`
	// Variants expands a single name into its common spellings before checking
	Variants  bool   `yaml:"variants"`
	OutputDir string `yaml:"output_dir"`
}

type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// OverrideRule forces BLOCKED when any keyword appears in the checked name
type OverrideRule struct {
	Name     string   `yaml:"name"`
	Enabled  bool     `yaml:"enabled"`
	Keywords []string `yaml:"keywords"`
}

// LLMSettings configures the Bedrock moderation backend
type LLMSettings struct {
	MaxTokens int    `yaml:"max_tokens"`
	Prompt    string `yaml:"prompt"`
}
