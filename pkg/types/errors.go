package types

import "errors"

// Standard errors returned by the staging store, clients and pipeline.
var (
	// ErrNotFound indicates a row or mapping that does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrNoSelection indicates that no project selection has been saved.
	// Import and migrate treat this as a fatal precondition.
	ErrNoSelection = errors.New("no project selection; run 'railbridge select' first")

	// ErrMissingCredentials indicates incomplete TestRail or Jira credentials.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrBusy indicates that another pipeline run is already in flight.
	ErrBusy = errors.New("another run is in progress")

	// ErrInvalidEntityType indicates an unrecognized mapping entity type.
	ErrInvalidEntityType = errors.New("invalid entity type")
)
