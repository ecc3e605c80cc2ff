package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sonarlens/sonarlens/internal/output"
)

var (
	historyListLimit int

	historyPruneOlderThan time.Duration
	historyPruneYes       bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the local exchange history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		if db == nil {
			return errors.New("history is disabled in configuration")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		exchanges, err := db.ListRecent(cmd.Context(), historyListLimit)
		if err != nil {
			return err
		}

		outPath, outDir, err := resolveOutputTargets(cmd)
		if err != nil {
			return err
		}
		if outDir != "" {
			outDir, err = ensureOutDir(outDir)
			if err != nil {
				return err
			}
			outPath = filepath.Join(outDir, fmt.Sprintf("history.list.%s", outputExtension(format)))
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(exchanges, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(sink.writer, string(payload))
			return err
		}

		if len(exchanges) == 0 {
			_, err = fmt.Fprintln(sink.writer, "(no recorded exchanges)")
			return err
		}

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"ID", "When", "Model", "Prompt", "Tokens"})
		for _, ex := range exchanges {
			tw.AppendRow(table.Row{
				ex.ID,
				ex.CreatedAt.Local().Format("2006-01-02 15:04"),
				ex.Model,
				truncate(ex.UserPrompt, 60),
				ex.TotalTokens,
			})
		}
		_, err = fmt.Fprintln(sink.writer, tw.Render())
		return err
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete exchanges older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyPruneOlderThan <= 0 {
			return errors.New("--older-than must be positive")
		}
		if !historyPruneYes {
			return errors.New("prune is destructive; confirm with --yes")
		}

		db, err := openHistory(cmd.Context())
		if err != nil {
			return err
		}
		if db == nil {
			return errors.New("history is disabled in configuration")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		deleted, err := db.Prune(cmd.Context(), time.Now().Add(-historyPruneOlderThan))
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d exchange(s)\n", deleted)
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func init() {
	historyListCmd.Flags().IntVarP(&historyListLimit, "limit", "n", 20, "number of exchanges to list")
	historyListCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json")
	historyListCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	historyListCmd.Flags().String("out-dir", "", "Write output to a directory")

	historyPruneCmd.Flags().DurationVar(&historyPruneOlderThan, "older-than", 0, "age cutoff, e.g. 720h")
	historyPruneCmd.Flags().BoolVar(&historyPruneYes, "yes", false, "Confirm destructive prune")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
