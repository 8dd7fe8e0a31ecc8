package main

import (
	"os"

	"github.com/spf13/cobra"

	"railbridge/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show staged versus migrated counts",
	RunE: func(cmd *cobra.Command, args []string) error {
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
	},
}
