package cmd

import (
	"os"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/engine"
	"github.com/spf13/cobra"
)

var (
	askData     datasetFlags
	askRuntime  runtimeOptions
	askJSON     bool
	askOutput   string
	askShowTier bool
)

var askCmd = &cobra.Command{
	Use:   "ask [file] <question...>",
	Short: "Answer one question about a table",
	Example: `  tabula ask sales.csv "top 5 region by revenue"
  tabula ask sales.xlsx --sheet-name Q1 "average price for Laptops" --json
  tabula ask "show monthly sales"   # no file: example chart`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ds *dataset.Dataset
		if len(args) > 1 && isFile(args[0]) {
			d, err := askData.load(args[0])
			if err != nil {
				return err
			}
			ds, args = d, args[1:]
		}
		eng, cleanup, err := buildEngine(cfg, askRuntime, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		res := eng.Analyze(cmd.Context(), engine.Request{Dataset: ds, Query: strings.Join(args, " ")})
		out := cmd.OutOrStdout()
		if askJSON || askOutput != "" {
			return writeJSON(out, res, askOutput)
		}
		printResult(out, res)
		if askShowTier {
			cmd.PrintErrf("(answered by %s: %s)\n", res.Tier, res.Rule)
		}
		return nil
	},
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func init() {
	rootCmd.AddCommand(askCmd)
	askData.register(askCmd)
	askRuntime.register(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "emit the result as JSON")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "", "write the JSON result to this path")
	askCmd.Flags().BoolVar(&askShowTier, "show-tier", false, "print which tier answered to stderr")
}
