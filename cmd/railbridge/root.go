package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"railbridge/internal/config"
	"railbridge/internal/jira"
	"railbridge/internal/staging"
	"railbridge/internal/testrail"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagJSON      bool
	flagVerbose   bool
)

// cfg is loaded once by PersistentPreRunE and read by all subcommands.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "railbridge",
	Short:        "Migrate TestRail projects to Jira/Xray",
	Long:         "Railbridge imports a TestRail project into a local staging database,\nthen migrates its suites, cases, runs, results, milestones and attachments\nto a Jira project running the Xray extension.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		var err error
		cfg, err = config.Load(flagConfigDir)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mappingsCmd)
}

// initLogging routes structured logs to stderr so stdout stays parseable.
func initLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the staging database from config.
func openStore() (*staging.Store, error) {
	return staging.Open(cfg.DBPath)
}

// testrailClient builds the source client after validating credentials.
func testrailClient() (*testrail.Client, error) {
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	return testrail.New(cfg.TestRail.URL, cfg.TestRail.User, cfg.TestRail.Password,
		testrail.WithLogger(slog.Default()))
}

// jiraClient builds the destination client after validating credentials.
func jiraClient() (*jira.Client, error) {
	if err := cfg.ValidateDestination(); err != nil {
		return nil, err
	}
	return jira.New(cfg.Jira.URL, cfg.Jira.User, cfg.Jira.Password,
		jira.WithLogger(slog.Default()),
		jira.WithMinInterval(cfg.RateLimit))
}

// loadSelection reads the saved project selection.
func loadSelection() (*config.Selection, error) {
	return config.LoadSelection(cfg.SelectionPath)
}
