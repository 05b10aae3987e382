package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/engine"
	"github.com/spf13/cobra"
)

var (
	batchData        datasetFlags
	batchRuntime     runtimeOptions
	batchQueriesFile string
	batchConcurrency int
	batchOutput      string
)

// batchItem pairs a question with its answer in batch output.
type batchItem struct {
	Query string `json:"query"`
	engine.Result
	Tier engine.Tier `json:"tier"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <file> [question...]",
	Short: "Answer many questions about one table concurrently",
	Example: `  tabula batch sales.csv "top 3 region by sales" "total sales for North"
  tabula batch sales.csv --queries questions.txt --output answers.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		queries := args[1:]
		if batchQueriesFile != "" {
			fromFile, err := readQueries(batchQueriesFile)
			if err != nil {
				return err
			}
			queries = append(queries, fromFile...)
		}
		if len(queries) == 0 {
			return fmt.Errorf("no questions given (pass them as arguments or with --queries)")
		}
		ds, err := batchData.load(args[0])
		if err != nil {
			return err
		}
		eng, cleanup, err := buildEngine(cfg, batchRuntime, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		n := batchConcurrency
		if n <= 0 {
			n = cfg.BatchConcurrency
		}
		results := eng.AnalyzeBatch(cmd.Context(), ds, queries, n)
		items := make([]batchItem, len(results))
		for i, r := range results {
			items[i] = batchItem{Query: queries[i], Result: r, Tier: r.Tier}
		}
		return writeJSON(cmd.OutOrStdout(), items, batchOutput)
	},
}

// readQueries reads one question per line; blank lines and # comments are skipped.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchData.register(batchCmd)
	batchRuntime.register(batchCmd)
	batchCmd.Flags().StringVar(&batchQueriesFile, "queries", "", "file with one question per line")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "questions answered in parallel (default from config)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write JSON results to this path")
}
