package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/docverify/reconcile-cli/internal/fetcher"
	"github.com/docverify/reconcile-cli/internal/ingest"
)

var (
	importKind  string
	importFile  string
	importSheet int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load canonical or extracted records from CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, err := ingest.ParseKind(importKind)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		sheet := cfg.Import.Sheet
		if cmd.Flags().Changed("sheet") {
			sheet = importSheet
		}

		sum, err := ingest.File(ctx, env.Store, kind, fetcher.Source{Path: importFile, Sheet: sheet}, ingest.Options{
			DateLayouts: cfg.Match.DateLayouts,
		})
		if err != nil {
			return eris.Wrap(err, "import")
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d decoded, %d stored, %d skipped\n",
			sum.Kind, sum.Decoded, sum.Stored, len(sum.Skipped))
		return err
	},
}

func init() {
	importCmd.Flags().StringVar(&importKind, "kind", "", "record kind: identity, tax, land or extracted (required)")
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv or .xlsx file (required)")
	importCmd.Flags().IntVar(&importSheet, "sheet", 0, "xlsx sheet index (default from config)")
	_ = importCmd.MarkFlagRequired("kind")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
