package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Export or restore the source-to-Jira mapping table",
}

var mappingsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the mapping table to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.MappingPath
		if len(args) == 1 {
			path = args[0]
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ExportMappings(path); err != nil {
			return err
		}
		fmt.Printf("Mappings written to %s\n", path)
		return nil
	},
}

var mappingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the mapping table with a JSON snapshot",
	Long: `Import overwrites the local mapping table with the contents of a
previously exported snapshot. Use it to restore resume state after the
staging database was rebuilt from scratch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ImportMappings(args[0]); err != nil {
			return err
		}
		counts, err := store.CountMappings()
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		fmt.Printf("Restored %d mappings from %s\n", total, args[0])
		return nil
	},
}

func init() {
	mappingsCmd.AddCommand(mappingsExportCmd)
	mappingsCmd.AddCommand(mappingsImportCmd)
}
