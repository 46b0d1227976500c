package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/datasight/datasight-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataSight configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("api_key: %s\n", mask(cfg.APIKey))
		fmt.Printf("default_model: %s\n", cfg.DefaultModel)
		fmt.Printf("default_provider: %s\n", cfg.DefaultProvider)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("max_tokens: %d\n", cfg.MaxTokens)
		fmt.Printf("temperature: %.3f\n", cfg.Temperature)
		fmt.Printf("profile_sample_rows: %d\n", cfg.ProfileSampleRows)
		fmt.Printf("profile_top_values: %d\n", cfg.ProfileTopValues)
		fmt.Printf("profile_max_chars: %d\n", cfg.ProfileMaxChars)
		if len(cfg.RedactPatterns) > 0 {
			fmt.Printf("redact_patterns: %s\n", strings.Join(cfg.RedactPatterns, ","))
		}
		if len(cfg.RedactExcludeColumns) > 0 {
			fmt.Printf("redact_exclude_columns: %s\n", strings.Join(cfg.RedactExcludeColumns, ","))
		}
		fmt.Printf("redact_numeric_bounds: %t\n", cfg.RedactNumericBounds)
		fmt.Printf("correction_retries: %d\n", cfg.CorrectionRetries)
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		if cfg.OllamaHost != "" {
			fmt.Printf("ollama_host: %s\n", cfg.OllamaHost)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "api_key":
			cfg.APIKey = val
		case "base_url":
			cfg.BaseURL = val
		case "default_model":
			cfg.DefaultModel = val
		case "default_provider":
			switch strings.ToLower(val) {
			case "openrouter":
				cfg.DefaultProvider = "openrouter"
			case "ollama", "local":
				cfg.DefaultProvider = "ollama"
			default:
				return fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
			}
		case "output_dir":
			cfg.OutputDir = val
		case "max_tokens":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid max_tokens: %s", val)
			}
			cfg.MaxTokens = n
		case "temperature":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 || f > 2 {
				return fmt.Errorf("invalid temperature: %s", val)
			}
			cfg.Temperature = f
		case "profile_sample_rows":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid profile_sample_rows: %s", val)
			}
			cfg.ProfileSampleRows = n
		case "profile_top_values":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid profile_top_values: %s", val)
			}
			cfg.ProfileTopValues = n
		case "profile_max_chars":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid profile_max_chars: %s", val)
			}
			cfg.ProfileMaxChars = n
		case "redact_patterns":
			cfg.RedactPatterns = splitList(val)
		case "redact_exclude_columns":
			cfg.RedactExcludeColumns = splitList(val)
		case "redact_numeric_bounds":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid redact_numeric_bounds: %s", val)
			}
			cfg.RedactNumericBounds = b
		case "correction_retries":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid correction_retries: %s", val)
			}
			cfg.CorrectionRetries = n
		case "http_timeout_sec":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid http_timeout_sec: %s", val)
			}
			cfg.HTTPTimeoutSec = n
		case "retry_max_attempts":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid retry_max_attempts: %s", val)
			}
			cfg.RetryMaxAttempts = n
		case "ollama_host":
			cfg.OllamaHost = val
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", key)
		return nil
	},
}

func splitList(val string) []string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
