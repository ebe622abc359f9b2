// Package config loads repowiki's runtime configuration: provider selection,
// model, budgets, and the repository root to operate on. Adapted from the
// teacher's viper-backed Config, narrowed to what the agent loop and CLI
// need (spec.md §6: "the core receives an already-constructed provider" —
// config is the thing that constructs it).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Env vars consulted when loading config, mirroring the teacher's
// DCODE_CONFIG / DCODE_CONFIG_DIR convention under a new prefix.
const (
	EnvConfigFile    = "REPOWIKI_CONFIG"
	EnvConfigDir     = "REPOWIKI_CONFIG_DIR"
	EnvConfigContent = "REPOWIKI_CONFIG_CONTENT"
)

// Budgets are the numeric limits the Agent Loop and tool handlers enforce
// (spec.md §4.5, §4.3). Defaults match the spec exactly.
type Budgets struct {
	MaxSteps           int `mapstructure:"max_steps" json:"max_steps"`
	MaxExcerptLines     int `mapstructure:"max_excerpt_lines" json:"max_excerpt_lines"`
	MaxToolOutputChars int `mapstructure:"max_tool_output_chars" json:"max_tool_output_chars"`
}

// DefaultBudgets returns spec.md §4.5's stated defaults.
func DefaultBudgets() Budgets {
	return Budgets{
		MaxSteps:           8,
		MaxExcerptLines:     120,
		MaxToolOutputChars: 8000,
	}
}

// Config is the top-level configuration the CLI loads and hands to the
// core. The core itself never reads environment variables directly
// (spec.md §6) — config.Load is where that happens.
type Config struct {
	Provider    string  `mapstructure:"provider" json:"provider"`
	Model       string  `mapstructure:"model" json:"model"`
	BaseURL     string  `mapstructure:"base_url" json:"base_url,omitempty"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" json:"temperature"`
	RepoRoot    string  `mapstructure:"repo_root" json:"repo_root"`
	Budgets     Budgets `mapstructure:"budgets" json:"budgets"`
}

func defaults() *Config {
	return &Config{
		Provider:    "anthropic",
		Model:       "",
		MaxTokens:   4096,
		Temperature: 0.2,
		RepoRoot:    ".",
		Budgets:     DefaultBudgets(),
	}
}

// Load builds a Config by layering defaults, an optional config file, and
// environment variables, the same order the teacher's config.go uses.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("repowiki")
	v.SetConfigType("yaml")

	if dir := os.Getenv(EnvConfigDir); dir != "" {
		v.AddConfigPath(dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "repowiki"))
	}
	v.AddConfigPath(".")

	if file := os.Getenv(EnvConfigFile); file != "" {
		v.SetConfigFile(file)
	}

	cfg := defaults()
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("max_tokens", cfg.MaxTokens)
	v.SetDefault("temperature", cfg.Temperature)
	v.SetDefault("repo_root", cfg.RepoRoot)
	v.SetDefault("budgets.max_steps", cfg.Budgets.MaxSteps)
	v.SetDefault("budgets.max_excerpt_lines", cfg.Budgets.MaxExcerptLines)
	v.SetDefault("budgets.max_tool_output_chars", cfg.Budgets.MaxToolOutputChars)

	v.SetEnvPrefix("REPOWIKI")
	v.AutomaticEnv()

	if content := os.Getenv(EnvConfigContent); content != "" {
		if err := v.ReadConfig(strings.NewReader(content)); err != nil {
			return nil, fmt.Errorf("read config from %s: %w", EnvConfigContent, err)
		}
	} else if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects an unusable configuration before the loop starts.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "ollama":
	default:
		if c.Provider == "" {
			return fmt.Errorf("provider must be set")
		}
		// any other name is treated as an OpenAI-compatible server name
		// and requires BaseURL, checked by the CLI when it constructs it.
	}
	if c.Budgets.MaxSteps <= 0 {
		return fmt.Errorf("budgets.max_steps must be positive")
	}
	if c.Budgets.MaxExcerptLines <= 0 {
		return fmt.Errorf("budgets.max_excerpt_lines must be positive")
	}
	if c.Budgets.MaxToolOutputChars <= 0 {
		return fmt.Errorf("budgets.max_tool_output_chars must be positive")
	}
	return nil
}

// APIKeyEnvVar returns the environment variable name providers read their
// key from — the core never reads it itself (spec.md §6).
func APIKeyEnvVar(providerName string) string {
	switch providerName {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "ollama":
		return ""
	default:
		return fmt.Sprintf("%s_API_KEY", providerName)
	}
}
