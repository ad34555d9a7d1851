// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docmerge/internal/history"
	"github.com/pdiddy/docmerge/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished merge jobs",
	Long: `History lists completed and aborted jobs from the local ledger, newest
first. Use --format to export the ledger as YAML or JSON.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	cfg := appConfig()
	if cfg.History.Path == "" {
		return fmt.Errorf("history is disabled: set history.path")
	}
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	switch format {
	case "yaml":
		return store.ExportYAML(ctx, out)
	case "json":
		return store.ExportJSON(ctx, out)
	case "", "table":
		records, err := store.List(ctx, limit)
		if err != nil {
			return err
		}
		return formatHistory(out, records)
	}
	return fmt.Errorf("unknown format %q: use table, yaml, or json", format)
}

func formatHistory(w io.Writer, records []types.JobRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No jobs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-9s  %-5s  %-6s  %-30s  %s\n",
		"Started", "State", "Pages", "Inputs", "Output", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range records {
		output := filepath.Base(r.Output)
		if len(output) > 30 {
			output = output[:27] + "..."
		}
		errText := r.Error
		if len(errText) > 40 {
			errText = errText[:37] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-9s  %-5d  %-6d  %-30s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.State, r.Pages, len(r.Inputs), output, errText)
	}

	fmt.Fprintf(w, "\n%d jobs\n", len(records))
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of jobs to list")
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	rootCmd.AddCommand(historyCmd)
}
