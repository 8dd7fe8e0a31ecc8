// Package importer pulls a project's data out of the source test-management
// system into the local staging store. Entity types are imported in a fixed
// order so later types can rely on earlier ones being present, and each type
// commits as one batch.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"railbridge/internal/staging"
	"railbridge/internal/testrail"
	"railbridge/pkg/types"
)

// Summary reports what one import run staged, keyed by entity table name.
// Warnings counts collection or item level failures the run survived.
type Summary struct {
	Counts   map[string]int
	Warnings int
}

// Importer drives one project import. Safe to run repeatedly against the
// same store: upserts refresh staged rows and already-downloaded attachments
// are skipped.
type Importer struct {
	client         *testrail.Client
	store          *staging.Store
	attachmentsDir string
	logger         *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) { i.logger = l }
}

// New returns an Importer downloading attachments into attachmentsDir.
func New(client *testrail.Client, store *staging.Store, attachmentsDir string, opts ...Option) *Importer {
	i := &Importer{
		client:         client,
		store:          store,
		attachmentsDir: attachmentsDir,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports one project. The project fetch and the reference tables are
// fatal since nothing later can be interpreted without them; every
// project-scoped collection failure is logged, counted and skipped so one
// bad endpoint cannot lose the rest of the import.
func (i *Importer) Run(ctx context.Context, projectID int) (*Summary, error) {
	sum := &Summary{Counts: make(map[string]int)}

	project, err := i.client.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching project %d: %w", projectID, err)
	}
	if err := i.store.UpsertProjects([]types.Project{*project}); err != nil {
		return nil, err
	}
	sum.Counts["projects"] = 1
	i.logger.Info("importing project", "id", project.ID, "name", project.Name)

	if err := i.importReference(ctx, projectID, sum); err != nil {
		return nil, err
	}
	suites := i.importSuites(ctx, projectID, sum)
	i.importMilestones(ctx, projectID, sum)
	i.importCases(ctx, suites, sum)
	i.importPlans(ctx, projectID, sum)
	runs := i.importRuns(ctx, projectID, sum)
	i.importResults(ctx, runs, sum)

	counts, err := i.store.Counts()
	if err != nil {
		return nil, err
	}
	i.logger.Info("import complete", "warnings", sum.Warnings)
	for _, table := range staging.EntityTables() {
		i.logger.Info("staged", "table", table, "rows", counts[table])
	}
	return sum, nil
}

// warn records a survivable failure.
func (i *Importer) warn(sum *Summary, msg string, err error, args ...any) {
	sum.Warnings++
	i.logger.Warn(msg, append(args, "error", err)...)
}

// importReference pulls the installation-wide reference tables. These are
// not scoped to a project and the migrator cannot translate statuses or
// priorities without them, so any failure here aborts the run. Templates are
// a per-project fetch and stay survivable.
func (i *Importer) importReference(ctx context.Context, projectID int, sum *Summary) error {
	users, err := i.client.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("fetching users: %w", err)
	}
	if err := i.store.UpsertUsers(users); err != nil {
		return err
	}
	sum.Counts["users"] = len(users)

	caseTypes, err := i.client.GetCaseTypes(ctx)
	if err != nil {
		return fmt.Errorf("fetching case types: %w", err)
	}
	if err := i.store.UpsertCaseTypes(caseTypes); err != nil {
		return err
	}
	sum.Counts["case_types"] = len(caseTypes)

	caseFields, err := i.client.GetCaseFields(ctx)
	if err != nil {
		return fmt.Errorf("fetching case fields: %w", err)
	}
	if err := i.store.UpsertCaseFields(caseFields); err != nil {
		return err
	}
	sum.Counts["case_fields"] = len(caseFields)

	resultFields, err := i.client.GetResultFields(ctx)
	if err != nil {
		return fmt.Errorf("fetching result fields: %w", err)
	}
	if err := i.store.UpsertResultFields(resultFields); err != nil {
		return err
	}
	sum.Counts["result_fields"] = len(resultFields)

	priorities, err := i.client.GetPriorities(ctx)
	if err != nil {
		return fmt.Errorf("fetching priorities: %w", err)
	}
	if err := i.store.UpsertPriorities(priorities); err != nil {
		return err
	}
	sum.Counts["priorities"] = len(priorities)

	statuses, err := i.client.GetStatuses(ctx)
	if err != nil {
		return fmt.Errorf("fetching statuses: %w", err)
	}
	if err := i.store.UpsertStatuses(statuses); err != nil {
		return err
	}
	sum.Counts["statuses"] = len(statuses)

	if templates, err := i.client.GetTemplates(ctx, projectID); err != nil {
		i.warn(sum, "fetching templates", err)
	} else if err := i.store.UpsertTemplates(templates); err != nil {
		i.warn(sum, "staging templates", err)
	} else {
		sum.Counts["templates"] = len(templates)
	}
	return nil
}

func (i *Importer) importSuites(ctx context.Context, projectID int, sum *Summary) []types.Suite {
	suites, err := i.client.GetSuites(ctx, projectID)
	if err != nil {
		i.warn(sum, "fetching suites", err)
		return nil
	}
	if err := i.store.UpsertSuites(suites); err != nil {
		i.warn(sum, "staging suites", err)
		return nil
	}
	sum.Counts["suites"] = len(suites)

	for _, suite := range suites {
		sections, err := i.client.GetSections(ctx, projectID, suite.ID)
		if err != nil {
			i.warn(sum, "fetching sections", err, "suite", suite.ID)
			continue
		}
		if err := i.store.UpsertSections(sections); err != nil {
			i.warn(sum, "staging sections", err, "suite", suite.ID)
			continue
		}
		sum.Counts["sections"] += len(sections)
	}
	return suites
}

func (i *Importer) importMilestones(ctx context.Context, projectID int, sum *Summary) {
	milestones, err := i.client.GetMilestones(ctx, projectID)
	if err != nil {
		i.warn(sum, "fetching milestones", err)
		return
	}
	if err := i.store.UpsertMilestones(milestones); err != nil {
		i.warn(sum, "staging milestones", err)
		return
	}
	sum.Counts["milestones"] = len(milestones)
}

func (i *Importer) importCases(ctx context.Context, suites []types.Suite, sum *Summary) {
	for _, suite := range suites {
		cases, err := i.client.GetCases(ctx, suite.ProjectID, suite.ID)
		if err != nil {
			i.warn(sum, "fetching cases", err, "suite", suite.ID)
			continue
		}
		if err := i.store.UpsertCases(cases); err != nil {
			i.warn(sum, "staging cases", err, "suite", suite.ID)
			continue
		}
		sum.Counts["cases"] += len(cases)

		for _, c := range cases {
			i.importAttachments(ctx, types.AttachmentParentCase, c.ID, sum)
		}
	}
}

func (i *Importer) importPlans(ctx context.Context, projectID int, sum *Summary) {
	plans, err := i.client.GetPlans(ctx, projectID)
	if err != nil {
		i.warn(sum, "fetching plans", err)
		return
	}
	// The list endpoint omits entries; only the detail fetch carries them.
	detailed := make([]types.Plan, 0, len(plans))
	for _, p := range plans {
		detail, err := i.client.GetPlan(ctx, p.ID)
		if err != nil {
			i.warn(sum, "fetching plan detail", err, "plan", p.ID)
			detailed = append(detailed, p)
			continue
		}
		detailed = append(detailed, *detail)
	}
	if err := i.store.UpsertPlans(detailed); err != nil {
		i.warn(sum, "staging plans", err)
		return
	}
	sum.Counts["plans"] = len(detailed)
}

func (i *Importer) importRuns(ctx context.Context, projectID int, sum *Summary) []types.Run {
	runs, err := i.client.GetRuns(ctx, projectID)
	if err != nil {
		i.warn(sum, "fetching runs", err)
		return nil
	}
	if err := i.store.UpsertRuns(runs); err != nil {
		i.warn(sum, "staging runs", err)
		return nil
	}
	sum.Counts["runs"] = len(runs)
	return runs
}

func (i *Importer) importResults(ctx context.Context, runs []types.Run, sum *Summary) {
	for _, run := range runs {
		tests, err := i.client.GetTests(ctx, run.ID)
		if err != nil {
			i.warn(sum, "fetching tests", err, "run", run.ID)
			continue
		}
		if err := i.store.UpsertTests(tests); err != nil {
			i.warn(sum, "staging tests", err, "run", run.ID)
			continue
		}
		sum.Counts["tests"] += len(tests)

		for _, test := range tests {
			results, err := i.client.GetResults(ctx, test.ID)
			if err != nil {
				i.warn(sum, "fetching results", err, "test", test.ID)
				continue
			}
			if err := i.store.UpsertResults(results); err != nil {
				i.warn(sum, "staging results", err, "test", test.ID)
				continue
			}
			sum.Counts["results"] += len(results)

			for _, r := range results {
				i.importAttachments(ctx, types.AttachmentParentResult, r.ID, sum)
			}
		}
	}
}

// importAttachments stages the attachments of one parent entity. A row is
// only written after the file landed on disk non-empty, so a staged
// attachment always has a usable payload.
func (i *Importer) importAttachments(ctx context.Context, entityType string, entityID int, sum *Summary) {
	var (
		attachments []types.Attachment
		err         error
	)
	switch entityType {
	case types.AttachmentParentCase:
		attachments, err = i.client.GetAttachmentsForCase(ctx, entityID)
	case types.AttachmentParentResult:
		attachments, err = i.client.GetAttachmentsForResult(ctx, entityID)
	}
	if err != nil {
		i.warn(sum, "fetching attachments", err, "entity_type", entityType, "entity_id", entityID)
		return
	}

	var staged []types.Attachment
	for _, a := range attachments {
		a.EntityType = entityType
		a.EntityID = entityID

		exists, err := i.store.HasAttachment(a.ID, entityType, entityID)
		if err != nil {
			i.warn(sum, "checking attachment", err, "attachment", a.ID)
			continue
		}
		if exists {
			continue
		}

		path, err := i.downloadAttachment(ctx, &a)
		if err != nil {
			i.warn(sum, "downloading attachment", err, "attachment", a.ID)
			continue
		}
		if path == "" {
			i.warn(sum, "skipping empty attachment", nil, "attachment", a.ID, "filename", a.Filename)
			continue
		}
		a.LocalPath = path
		staged = append(staged, a)
	}
	if len(staged) == 0 {
		return
	}
	if err := i.store.UpsertAttachments(staged); err != nil {
		i.warn(sum, "staging attachments", err, "entity_type", entityType, "entity_id", entityID)
		return
	}
	sum.Counts["attachments"] += len(staged)
}

// downloadAttachment fetches one attachment payload to a deterministic path.
// Returns "" when the server handed back an empty body.
func (i *Importer) downloadAttachment(ctx context.Context, a *types.Attachment) (string, error) {
	name := filepath.Base(a.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = fmt.Sprintf("attachment_%d", a.ID)
	}
	path := filepath.Join(i.attachmentsDir, fmt.Sprintf("%s_%d_%s", a.EntityType, a.EntityID, name))

	if err := i.client.DownloadAttachment(ctx, a.ID, path); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat downloaded file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return "", nil
	}
	return path, nil
}
