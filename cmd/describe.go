package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/engine"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descData       datasetFlags
	descSampleRows int
	descOutput     string
	descOverview   bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarize a table's columns, kinds and sample rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := descData.load(args[0])
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(dataset.Summarize(ds, descSampleRows).Markdown())
		if descOverview {
			res := engine.Statistical(ds, nil)
			b.WriteString("\n## Overview\n\n")
			b.WriteString(res.Message)
			b.WriteString("\n")
		}
		md := b.String()

		out := cmd.OutOrStdout()
		if descOutput != "" {
			if err := utils.SafeWriteFile(descOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote summary to %s\n", descOutput)
			return nil
		}
		fmt.Fprintln(out, md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descData.register(describeCmd)
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().StringVarP(&descOutput, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().BoolVar(&descOverview, "overview", false, "append trend, correlation and outlier observations")
}
