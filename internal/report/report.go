// Package report summarizes the state of a migration: what the importer
// staged per table, and for each mapped entity type how much of it has
// reached the destination.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"railbridge/internal/staging"
	"railbridge/pkg/types"
)

// Progress is the staged-versus-migrated position of one entity type.
// Pending is what a further migration pass would still create.
type Progress struct {
	Entity   string `json:"entity"`
	Staged   int    `json:"staged"`
	Migrated int    `json:"migrated"`
	Pending  int    `json:"pending"`
}

// Report is a point-in-time migration summary.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Tables      map[string]int `json:"tables"`
	Progress    []Progress     `json:"progress"`
}

// entityTableFor maps a mapping entity type to its staged table.
var entityTableFor = map[string]string{
	types.EntityCase:      "cases",
	types.EntitySuite:     "suites",
	types.EntityRun:       "runs",
	types.EntityMilestone: "milestones",
}

// Build reads the staging store and assembles the report.
func Build(store *staging.Store) (*Report, error) {
	tables, err := store.Counts()
	if err != nil {
		return nil, err
	}
	mapped, err := store.CountMappings()
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedAt: time.Now(),
		Tables:      tables,
	}
	for _, et := range types.MappingEntityTypes {
		staged := tables[entityTableFor[et]]
		migrated := mapped[et]
		pending := staged - migrated
		if pending < 0 {
			pending = 0
		}
		r.Progress = append(r.Progress, Progress{
			Entity:   et,
			Staged:   staged,
			Migrated: migrated,
			Pending:  pending,
		})
	}
	return r, nil
}

// WriteTable renders the report as aligned plain text.
func (r *Report) WriteTable(w io.Writer) error {
	fmt.Fprintf(w, "Migration report, generated %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, table := range staging.EntityTables() {
		fmt.Fprintf(tw, "%s\t%d\n", table, r.Tables[table])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tSTAGED\tMIGRATED\tPENDING")
	for _, p := range r.Progress {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p.Entity, p.Staged, p.Migrated, p.Pending)
	}
	return tw.Flush()
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
