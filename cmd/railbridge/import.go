package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"railbridge/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Stage the selected TestRail project locally",
	Long: `Import pulls the selected TestRail project into the local staging
database: reference data, suites, sections, milestones, cases, plans, runs,
tests, results and attachments. Safe to re-run; staged rows are refreshed
and downloaded files are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doImport(cmd.Context())
	},
}

func doImport(ctx context.Context) error {
	sel, err := loadSelection()
	if err != nil {
		return err
	}
	client, err := testrailClient()
	if err != nil {
		return err
	}
	if err := cfg.EnsureAttachmentsDir(); err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// Each pass gets a sortable id so interleaved log lines group cleanly.
	logger := slog.Default().With("pass", uuid.Must(uuid.NewV7()).String())

	imp := importer.New(client, store, cfg.AttachmentsDir, importer.WithLogger(logger))
	sum, err := imp.Run(ctx, sel.TestRailProjectID)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %q: %d cases, %d runs, %d results, %d warnings\n",
		sel.TestRailProjectName, sum.Counts["cases"], sum.Counts["runs"],
		sum.Counts["results"], sum.Warnings)
	return nil
}
