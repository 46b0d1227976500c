package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datasight/datasight-cli/internal/ai"
	"github.com/datasight/datasight-cli/internal/utils"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model catalog and pricing used for cost estimates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		keys := make([]string, 0, len(cat))
		for k := range cat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if modelsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cat)
		}
		for _, k := range keys {
			mi := cat[k]
			fmt.Printf("%-36s ctx %-8d in $%.4f/1K  out $%.4f/1K\n", k, mi.ContextTokens, mi.InputPerK, mi.OutputPerK)
		}
		// Show what a full-budget prompt would cost on the default model.
		if cfg != nil && cfg.DefaultModel != "" && cfg.ProfileMaxChars > 0 {
			tokens := utils.CountTokens(strings.Repeat("x", cfg.ProfileMaxChars))
			if cost, ok := ai.EstimateCostUSD(cfg.DefaultModel, tokens, cfg.MaxTokens); ok {
				fmt.Printf("\nEstimated cost per run on %s (full profile budget): ~$%.4f\n", cfg.DefaultModel, cost)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
}
