package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel    string `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir"`

	// HTTP/Retry configuration for the live backend
	HTTPTimeoutSec   int     `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int     `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int     `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int     `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
	MaxTokens        int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature"`

	// Profiler budgets
	ProfileSampleRows int `mapstructure:"profile_sample_rows" yaml:"profile_sample_rows"`
	ProfileTopValues  int `mapstructure:"profile_top_values" yaml:"profile_top_values"`
	ProfileMaxChars   int `mapstructure:"profile_max_chars" yaml:"profile_max_chars"`

	// Redaction policy
	RedactPatterns       []string `mapstructure:"redact_patterns" yaml:"redact_patterns"`
	RedactExcludeColumns []string `mapstructure:"redact_exclude_columns" yaml:"redact_exclude_columns"`
	RedactNumericBounds  bool     `mapstructure:"redact_numeric_bounds" yaml:"redact_numeric_bounds"`

	// CorrectionRetries bounds re-prompts after an invalid model response.
	CorrectionRetries int `mapstructure:"correction_retries" yaml:"correction_retries"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.datasight/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".datasight")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASIGHT")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("default_model", "openai/gpt-4o-mini")
	v.SetDefault("default_provider", "openrouter")
	v.SetDefault("output_dir", "output")
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("profile_sample_rows", 5)
	v.SetDefault("profile_top_values", 8)
	v.SetDefault("profile_max_chars", 6000)
	v.SetDefault("redact_patterns", []string{})
	v.SetDefault("redact_exclude_columns", []string{})
	v.SetDefault("redact_numeric_bounds", false)
	v.SetDefault("correction_retries", 1)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 60)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".datasight")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
