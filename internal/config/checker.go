package config

import (
	"fmt"
	"os"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/verdict"
	"go.yaml.in/yaml/v3"
)

const DefaultConfigPath = "configs/checker.yaml"

// LoadCheckerConfig reads path, or CHECKER_CONFIG_PATH, or the default location.
// A missing file at the default location yields the built-in defaults.
func LoadCheckerConfig(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("CHECKER_CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		cfg = Default()
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Default is the policy used when no configuration file exists.
func Default() Config {
	cfg := Config{
		Checker: CheckerSettings{Variants: true},
		Overrides: []OverrideRule{
			{Name: "hate-keyword", Enabled: true, Keywords: []string{"hate"}},
		},
	}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if len(cfg.Checker.Categories) == 0 {
		for _, c := range models.AllCategories() {
			cfg.Checker.Categories = append(cfg.Checker.Categories, string(c))
		}
	}
	if cfg.Checker.Workers == 0 {
		cfg.Checker.Workers = 1
	}
	if cfg.Checker.OutputDir == "" {
		cfg.Checker.OutputDir = "."
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = time.Second
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 256
	}
}

func (c *Config) Validate() error {
	if _, err := c.CategoryList(); err != nil {
		return err
	}
	if !models.Severity(c.Checker.Threshold).Valid() {
		return fmt.Errorf("threshold %d must be one of 0, 2, 4, 6", c.Checker.Threshold)
	}
	if c.Checker.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Checker.Workers)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry.base_delay must not be negative")
	}

	seen := make(map[string]bool, len(c.Overrides))
	for i, rule := range c.Overrides {
		if rule.Name == "" {
			return fmt.Errorf("overrides[%d]: name is required", i)
		}
		if seen[rule.Name] {
			return fmt.Errorf("overrides[%d]: duplicate rule %q", i, rule.Name)
		}
		seen[rule.Name] = true
		if rule.Enabled && len(rule.Keywords) == 0 {
			return fmt.Errorf("override %q is enabled but has no keywords", rule.Name)
		}
	}

	return nil
}

// CategoryList parses the configured categories.
func (c *Config) CategoryList() ([]models.Category, error) {
	categories := make([]models.Category, 0, len(c.Checker.Categories))
	for _, name := range c.Checker.Categories {
		category, err := models.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (c *Config) Threshold() models.Severity {
	return models.Severity(c.Checker.Threshold)
}

// OverrideRules returns the enabled rules in declaration order.
func (c *Config) OverrideRules() []verdict.OverrideRule {
	var rules []verdict.OverrideRule
	for _, rule := range c.Overrides {
		if !rule.Enabled {
			continue
		}
		rules = append(rules, verdict.KeywordRule{RuleName: rule.Name, Keywords: rule.Keywords})
	}
	return rules
}
