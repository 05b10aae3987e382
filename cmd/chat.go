package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/engine"
	"github.com/KaramelBytes/tabula-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	chatData    datasetFlags
	chatRuntime runtimeOptions
)

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Ask follow-up questions about a table in an interactive session",
	Long: `Starts a question loop over one table. Prior questions and answers are
passed to the language model as context. Type "exit" or send EOF to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ds *dataset.Dataset
		if len(args) == 1 {
			d, err := chatData.load(args[0])
			if err != nil {
				return err
			}
			ds = d
		}
		eng, cleanup, err := buildEngine(cfg, chatRuntime, nil)
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		store := session.NewStore()
		sid := store.Create()
		if ds != nil {
			fmt.Fprintf(out, "✓ Loaded %s (%d rows, %d columns)\n", ds.Name, ds.Len(), len(ds.Columns))
		} else {
			fmt.Fprintln(out, "⚠ No table loaded; answers use example charts.")
		}

		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				break
			}
			q := strings.TrimSpace(sc.Text())
			switch strings.ToLower(q) {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			res := eng.Analyze(cmd.Context(), engine.Request{Dataset: ds, Query: q, History: store.History(sid)})
			store.Append(sid, q, res.Message)
			printResult(out, res)
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out)
		return sc.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatData.register(chatCmd)
	chatRuntime.register(chatCmd)
}
