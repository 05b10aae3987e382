package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List providers and known models",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "Providers:")
		for _, p := range ai.Providers() {
			fmt.Fprintf(w, "  %-10s default model: %s\n", p, ai.DefaultModel(p))
		}
		fmt.Fprintln(w, "\nKnown models (prompt budget is capped to half the context window):")
		for _, mi := range ai.Catalog() {
			fmt.Fprintf(w, "  %-28s %8d tokens\n", mi.Name, mi.ContextTokens)
		}
		if cfg != nil {
			model := cfg.Model
			if model == "" {
				model = ai.DefaultModel(strings.ToLower(cfg.Provider))
			}
			fmt.Fprintf(w, "\nConfigured: provider=%s model=%s prompt budget=%d tokens\n",
				cfg.Provider, model, ai.PromptBudget(model, cfg.PromptTokenBudget))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
