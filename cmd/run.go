package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datasight/datasight-cli/internal/ai"
	"github.com/datasight/datasight-cli/internal/dataset"
	"github.com/datasight/datasight-cli/internal/pipeline"
	"github.com/datasight/datasight-cli/internal/profile"
	"github.com/datasight/datasight-cli/internal/redact"
	"github.com/datasight/datasight-cli/internal/store"
	"github.com/datasight/datasight-cli/internal/utils"
)

var (
	runQuestion    string
	runModel       string
	runProvider    string
	runOutDir      string
	runDryRun      bool
	runDelimiter   string
	runSampleRows  int
	runTopValues   int
	runMaxChars    int
	runExclude     []string
	runCorrections int
	runMaxRows     int
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Profile a dataset, ask the model a question, persist validated insights",
	Example: `  datasight run sales.csv --question "Why did revenue drop?" --dry-run
  datasight run sales.csv -q "What drives churn?" --model openai/gpt-4o-mini --out ./output
  datasight run metrics.tsv -q "Any anomalies?" --exclude customer_email`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if runQuestion == "" {
			return fmt.Errorf("--question is required")
		}

		loadOpt := dataset.LoadOptions{MaxRows: runMaxRows}
		switch runDelimiter {
		case "":
		case ",":
			loadOpt.Delimiter = ','
		case ";":
			loadOpt.Delimiter = ';'
		case "\t", "tab":
			loadOpt.Delimiter = '\t'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", runDelimiter)
		}
		ds, err := dataset.LoadCSV(path, loadOpt)
		if err != nil {
			return err
		}

		model := runModel
		if model == "" && cfg != nil {
			model = cfg.DefaultModel
		}
		outDir := runOutDir
		if outDir == "" && cfg != nil {
			outDir = cfg.OutputDir
		}
		if outDir == "" {
			outDir = "output"
		}

		mode := pipeline.ModeLive
		var runtime ai.Runtime
		if runDryRun {
			mode = pipeline.ModeDryRun
		} else {
			runtime, err = buildRuntime(model)
			if err != nil {
				return err
			}
		}

		runner := &pipeline.Runner{
			ProfileOpts:    profileOptions(),
			Redaction:      redactionPolicy(),
			Store:          store.New(outDir),
			Logger:         logger,
			Runtime:        runtime,
			MaxCorrections: correctionBound(),
			MaxTokens:      maxTokens(),
			Temperature:    temperature(),
		}

		out, err := runner.Run(cmd.Context(), pipeline.Request{
			Dataset:  ds,
			Question: runQuestion,
			Model:    model,
			Mode:     mode,
		})
		if err != nil {
			return err
		}

		if runJSON {
			b, err := utils.PrettyJSON(out.Result)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		} else {
			fmt.Printf("✓ Insights accepted (run %s)\n\n", out.RunID)
			fmt.Println(out.Result.ExecutiveSummary)
			for _, k := range out.Result.KeyInsights {
				fmt.Println("  -", k)
			}
			if len(out.Profile.Reductions) > 0 {
				fmt.Println("\nProfile reductions applied:")
				for _, r := range out.Profile.Reductions {
					fmt.Println("  -", r)
				}
			}
		}
		for _, p := range out.Paths {
			fmt.Printf("✓ Wrote %s\n", p)
		}
		return nil
	},
}

func buildRuntime(model string) (ai.Runtime, error) {
	provider := runProvider
	if provider == "" && cfg != nil {
		provider = cfg.DefaultProvider
	}
	switch provider {
	case ai.ProviderOllama:
		host := ""
		timeout := 0
		if cfg != nil {
			host = cfg.OllamaHost
			timeout = cfg.OllamaTimeoutSec
		}
		return ai.NewOllamaClient(host, time.Duration(timeout)*time.Second), nil
	case "", ai.ProviderOpenRouter:
		if cfg == nil || cfg.APIKey == "" {
			return nil, fmt.Errorf("API key not configured: set DATASIGHT_API_KEY, run 'datasight config set api_key ...', or use --dry-run")
		}
		c := ai.NewClientWithBaseURL(
			cfg.APIKey,
			time.Duration(cfg.HTTPTimeoutSec)*time.Second,
			cfg.RetryMaxAttempts,
			time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond,
			time.Duration(cfg.RetryMaxDelayMs)*time.Millisecond,
			cfg.BaseURL,
		)
		if _, known := ai.LookupModel(model); !known {
			fmt.Printf("⚠ Model %s is not in the local catalog; cost estimates will be zero\n", model)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s (use openrouter or ollama)", provider)
	}
}

func profileOptions() profile.Options {
	opt := profile.DefaultOptions()
	if cfg != nil {
		if cfg.ProfileSampleRows > 0 {
			opt.SampleRows = cfg.ProfileSampleRows
		}
		if cfg.ProfileTopValues > 0 {
			opt.TopValues = cfg.ProfileTopValues
		}
		if cfg.ProfileMaxChars > 0 {
			opt.MaxChars = cfg.ProfileMaxChars
		}
	}
	if runSampleRows > 0 {
		opt.SampleRows = runSampleRows
	}
	if runTopValues > 0 {
		opt.TopValues = runTopValues
	}
	if runMaxChars > 0 {
		opt.MaxChars = runMaxChars
	}
	return opt
}

func redactionPolicy() redact.Policy {
	pol := redact.DefaultPolicy()
	if cfg != nil {
		pol.NamePatterns = append(pol.NamePatterns, cfg.RedactPatterns...)
		pol.ExcludeColumns = append(pol.ExcludeColumns, cfg.RedactExcludeColumns...)
		if cfg.RedactNumericBounds {
			pol.KeepNumericBounds = false
		}
	}
	pol.ExcludeColumns = append(pol.ExcludeColumns, runExclude...)
	return pol
}

func correctionBound() int {
	if runCorrections >= 0 {
		return runCorrections
	}
	if cfg != nil && cfg.CorrectionRetries >= 0 {
		return cfg.CorrectionRetries
	}
	return 1
}

func maxTokens() int {
	if cfg != nil && cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 1024
}

func temperature() float64 {
	if cfg != nil && cfg.Temperature > 0 {
		return cfg.Temperature
	}
	return 0.2
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runQuestion, "question", "q", "", "natural-language question about the data (required)")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "model identifier (default from config)")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "inference provider: openrouter | ollama")
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "", "output directory (default from config, else ./output)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "no network calls; write deterministic offline insights")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "field delimiter: ',' | ';' | 'tab' (sniffed from extension if omitted)")
	runCmd.Flags().IntVar(&runSampleRows, "sample-rows", 0, "sample rows to include in the profile")
	runCmd.Flags().IntVar(&runTopValues, "top-values", 0, "max categorical frequency entries per column")
	runCmd.Flags().IntVar(&runMaxChars, "profile-chars", 0, "character budget for the rendered profile")
	runCmd.Flags().IntVar(&runMaxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	runCmd.Flags().StringSliceVar(&runExclude, "exclude", nil, "columns to exclude from the transmitted profile entirely")
	runCmd.Flags().IntVar(&runCorrections, "corrections", -1, "corrective re-prompts after an invalid model response")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the accepted result as JSON")
}
