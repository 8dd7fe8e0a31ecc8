package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"railbridge/internal/migrator"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Replay the staged data against Jira/Xray",
	Long: `Migrate creates Tests, Test Sets, Test Executions, result statuses,
versions and attachments in the selected Jira project from the staged data.
Already-migrated entities are skipped via the mapping store, so an
interrupted run can simply be started again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doMigrate(cmd.Context())
	},
}

func doMigrate(ctx context.Context) error {
	sel, err := loadSelection()
	if err != nil {
		return err
	}
	if sel.JiraProjectKey == "" {
		return fmt.Errorf("selection has no jira project; run 'railbridge select' again")
	}
	client, err := jiraClient()
	if err != nil {
		return err
	}

	// Fail fast on bad credentials or a vanished project.
	if err := client.Myself(ctx); err != nil {
		return fmt.Errorf("jira credentials rejected: %w", err)
	}
	if _, err := client.GetProject(ctx, sel.JiraProjectKey); err != nil {
		return fmt.Errorf("jira project %s: %w", sel.JiraProjectKey, err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.Default().With("pass", uuid.Must(uuid.NewV7()).String())

	m := migrator.New(client, store, sel.TestRailProjectID, sel.JiraProjectKey,
		cfg.MappingPath, migrator.WithLogger(logger))
	sum, err := m.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Migrated to %s: %d tests, %d test sets, %d executions, %d results, %d versions, %d attachments (%d skipped, %d warnings)\n",
		sel.JiraProjectKey, sum.Tests, sum.TestSets, sum.Executions,
		sum.Results, sum.Versions, sum.Attachments, sum.Skipped, sum.Warnings)
	fmt.Printf("Mapping written to %s\n", cfg.MappingPath)
	return nil
}
