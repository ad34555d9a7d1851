// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docmerge/internal/merge"
	"github.com/pdiddy/docmerge/internal/registry"
	"github.com/pdiddy/docmerge/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [files...] -o output.pdf",
	Short: "Merge files into one PDF in the given order",
	Long: `Merge converts every input to PDF pages and concatenates them in order.
Images that fail to convert and unsupported files are skipped. A Word
document or HTML page that cannot be converted aborts the job and no output
is written.

Inputs may also come from a YAML manifest (--manifest) listing files under
a "files" key. Manifest entries are appended after the command-line files.`,
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	manifest, _ := cmd.Flags().GetString("manifest")
	stderr := cmd.ErrOrStderr()

	reg := registry.New()
	for _, a := range args {
		if !reg.Add(a) {
			fmt.Fprintf(stderr, "ignoring %s: not a file or already listed\n", a)
		}
	}
	if manifest != "" {
		if _, err := reg.LoadManifest(manifest); err != nil {
			return err
		}
	}

	a, err := newApp(appConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pipeline.Run(context.Background(), reg.Entries(), output, progressPrinter(stderr))
	if err != nil {
		if merge.IsInputError(err) {
			return fmt.Errorf("%w: pass files and -o output.pdf", err)
		}
		return err
	}

	printResult(cmd.OutOrStdout(), res)
	return nil
}

// progressPrinter writes one line per progress event.
func progressPrinter(w io.Writer) func(types.Event) {
	return func(ev types.Event) {
		switch ev.Type {
		case types.EventProgress:
			fmt.Fprintf(w, "[%d/%d] %s\n", ev.Index, ev.Total, ev.Name)
		case types.EventFinalizing:
			fmt.Fprintln(w, "writing output...")
		}
	}
}

func printResult(w io.Writer, res *types.JobResult) {
	fmt.Fprintf(w, "PDF merged successfully: %s (%d pages, %d files, %s)\n",
		res.Output, res.Pages, len(res.Included), res.Elapsed)
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.Path, s.Reason)
	}
	if res.RemoteKey != "" {
		fmt.Fprintf(w, "  published as %s\n", res.RemoteKey)
	}
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "", "output PDF path")
	mergeCmd.Flags().String("manifest", "", "YAML manifest listing input files")
	_ = mergeCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(mergeCmd)
}
