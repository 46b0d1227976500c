package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datasight/datasight-cli/internal/dataset"
	"github.com/datasight/datasight-cli/internal/profile"
	"github.com/datasight/datasight-cli/internal/redact"
	"github.com/datasight/datasight-cli/internal/utils"
)

var (
	profOutputPath string
	profDelimiter  string
	profSampleRows int
	profTopValues  int
	profMaxChars   int
	profExclude    []string
	profNoRedact   bool
	profJSON       bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile and redact a dataset without contacting any model",
	Long: `Profile prints exactly what 'run' would embed in a prompt: the bounded,
redacted dataset summary. Useful for reviewing what leaves the machine
before enabling live inference.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		loadOpt := dataset.LoadOptions{}
		switch profDelimiter {
		case "":
		case ",":
			loadOpt.Delimiter = ','
		case ";":
			loadOpt.Delimiter = ';'
		case "\t", "tab":
			loadOpt.Delimiter = '\t'
		default:
			return fmt.Errorf("unsupported --delimiter: %s", profDelimiter)
		}
		ds, err := dataset.LoadCSV(path, loadOpt)
		if err != nil {
			return err
		}

		opt := profile.DefaultOptions()
		if profSampleRows > 0 {
			opt.SampleRows = profSampleRows
		}
		if profTopValues > 0 {
			opt.TopValues = profTopValues
		}
		if profMaxChars > 0 {
			opt.MaxChars = profMaxChars
		}
		p, err := profile.New(ds, opt)
		if err != nil {
			return err
		}
		if !profNoRedact {
			pol := redactionPolicy()
			pol.ExcludeColumns = append(pol.ExcludeColumns, profExclude...)
			p = redact.Apply(p, pol)
		}

		var out string
		if profJSON {
			b, err := utils.PrettyJSON(p)
			if err != nil {
				return err
			}
			out = string(b) + "\n"
		} else {
			out = p.Render()
		}
		if profOutputPath != "" {
			if err := os.WriteFile(profOutputPath, []byte(out), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile")
	profileCmd.Flags().StringVar(&profDelimiter, "delimiter", "", "field delimiter: ',' | ';' | 'tab'")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 0, "sample rows to include")
	profileCmd.Flags().IntVar(&profTopValues, "top-values", 0, "max categorical frequency entries per column")
	profileCmd.Flags().IntVar(&profMaxChars, "profile-chars", 0, "character budget for the rendered profile")
	profileCmd.Flags().StringSliceVar(&profExclude, "exclude", nil, "columns to exclude entirely")
	profileCmd.Flags().BoolVar(&profNoRedact, "no-redact", false, "skip redaction (local review only)")
	profileCmd.Flags().BoolVar(&profJSON, "json", false, "print the profile as JSON")
}
