package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"railbridge/internal/pipeline"
	"railbridge/internal/report"
)

// coordinator serializes full passes within the process.
var coordinator pipeline.Coordinator

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import, migrate and report in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		return coordinator.Do(cmd.Context(), runFullPass)
	},
}

func runFullPass(ctx context.Context) error {
	if err := doImport(ctx); err != nil {
		return err
	}
	if err := doMigrate(ctx); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := report.Build(store)
	if err != nil {
		return err
	}
	if flagJSON {
		return r.WriteJSON(os.Stdout)
	}
	return r.WriteTable(os.Stdout)
}
