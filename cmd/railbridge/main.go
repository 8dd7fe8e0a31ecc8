// Package main provides the railbridge CLI: a two-phase TestRail to
// Jira/Xray migration tool. "import" stages a TestRail project into a local
// SQLite database, "migrate" replays the staged data against Jira, and "run"
// does both in one pass.
package main

import (
	"errors"
	"fmt"
	"os"

	"railbridge/pkg/types"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes user errors (bad flags, missing credentials or
// selection) from system errors.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrMissingCredentials),
		errors.Is(err, types.ErrNoSelection),
		errors.Is(err, types.ErrBusy):
		return exitUserError
	default:
		return exitSysError
	}
}
