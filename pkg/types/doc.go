// Package types defines the entity structs mirrored by the staging store,
// the custom-field bag carried by cases, tests and results, and the standard
// error values shared across the importer, migrator and clients.
package types
