// Package migrator replays the staging store against a Jira instance running
// the Xray extension. Cases become Tests, suites Test Sets, runs Test
// Executions, results test-run statuses and milestones versions. Every
// confirmed creation is recorded in the mapping store before the next item is
// attempted, so an interrupted migration resumes where it stopped instead of
// duplicating destination issues.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"railbridge/internal/jira"
	"railbridge/internal/staging"
	"railbridge/pkg/types"
)

// Summary reports what one migration pass created, per stage. Skipped counts
// items already mapped from an earlier pass; Warnings counts item failures
// the pass survived.
type Summary struct {
	Tests       int
	TestSets    int
	Executions  int
	Results     int
	Versions    int
	Attachments int
	Skipped     int
	Warnings    int
}

// Migrator drives one migration pass for a single project pair.
type Migrator struct {
	client      *jira.Client
	store       *staging.Store
	projectID   int
	projectKey  string
	mappingPath string
	logger      *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) { m.logger = l }
}

// New returns a Migrator moving the staged source project projectID into the
// Jira project projectKey. The mapping file at mappingPath is rewritten at
// the end of every pass.
func New(client *jira.Client, store *staging.Store, projectID int, projectKey, mappingPath string, opts ...Option) *Migrator {
	m := &Migrator{
		client:      client,
		store:       store,
		projectID:   projectID,
		projectKey:  projectKey,
		mappingPath: mappingPath,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes the six migration stages in dependency order: tests first so
// sets and executions can reference them, results after executions, versions
// and attachments last. Item failures are logged and skipped; a stage never
// aborts the pass.
func (m *Migrator) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	if err := m.migrateCases(ctx, sum); err != nil {
		return nil, err
	}
	if err := m.migrateSuites(ctx, sum); err != nil {
		return nil, err
	}
	if err := m.migrateRuns(ctx, sum); err != nil {
		return nil, err
	}
	if err := m.migrateResults(ctx, sum); err != nil {
		return nil, err
	}
	if err := m.migrateMilestones(ctx, sum); err != nil {
		return nil, err
	}
	if err := m.migrateAttachments(ctx, sum); err != nil {
		return nil, err
	}

	if err := m.store.ExportMappings(m.mappingPath); err != nil {
		return nil, err
	}
	m.logger.Info("migration complete",
		"tests", sum.Tests, "test_sets", sum.TestSets, "executions", sum.Executions,
		"results", sum.Results, "versions", sum.Versions, "attachments", sum.Attachments,
		"skipped", sum.Skipped, "warnings", sum.Warnings)
	return sum, nil
}

// warn records a survivable item failure.
func (m *Migrator) warn(sum *Summary, msg string, err error, args ...any) {
	sum.Warnings++
	m.logger.Warn(msg, append(args, "error", err)...)
}

// mapped returns the recorded destination key for an entity, "" when none.
func (m *Migrator) mapped(entityType string, entityID int) (string, error) {
	key, err := m.store.GetMapping(entityType, entityID)
	if errors.Is(err, types.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *Migrator) migrateCases(ctx context.Context, sum *Summary) error {
	cases, err := m.store.CasesForProject(m.projectID)
	if err != nil {
		return err
	}
	m.logger.Info("migrating test cases", "count", len(cases))

	for i := range cases {
		c := &cases[i]
		key, err := m.mapped(types.EntityCase, c.ID)
		if err != nil {
			return err
		}
		if key != "" {
			sum.Skipped++
			continue
		}

		key, err = m.client.CreateIssue(ctx, m.projectKey, c.Title, caseDescription(c), jira.IssueTypeTest)
		if err != nil {
			m.warn(sum, "creating test", err, "case", c.ID)
			continue
		}
		if steps := DeriveSteps(c.CustomFields); len(steps) > 0 {
			if err := m.client.AddTestSteps(ctx, key, steps); err != nil {
				m.warn(sum, "adding test steps", err, "case", c.ID, "key", key)
			}
		}
		if err := m.store.PutMapping(types.EntityCase, c.ID, key); err != nil {
			return err
		}
		sum.Tests++
	}
	return nil
}

func (m *Migrator) migrateSuites(ctx context.Context, sum *Summary) error {
	suites, err := m.store.SuitesForProject(m.projectID)
	if err != nil {
		return err
	}
	m.logger.Info("migrating suites as test sets", "count", len(suites))

	for i := range suites {
		s := &suites[i]
		key, err := m.mapped(types.EntitySuite, s.ID)
		if err != nil {
			return err
		}
		if key != "" {
			sum.Skipped++
			continue
		}

		key, err = m.client.CreateIssue(ctx, m.projectKey, s.Name, suiteDescription(s), jira.IssueTypeTestSet)
		if err != nil {
			m.warn(sum, "creating test set", err, "suite", s.ID)
			continue
		}
		testKeys, err := m.testKeysForSuite(s.ID)
		if err != nil {
			return err
		}
		if err := m.client.AddTestsToSet(ctx, key, testKeys); err != nil {
			m.warn(sum, "adding tests to set", err, "suite", s.ID, "key", key)
		}
		if err := m.store.PutMapping(types.EntitySuite, s.ID, key); err != nil {
			return err
		}
		sum.TestSets++
	}
	return nil
}

func (m *Migrator) migrateRuns(ctx context.Context, sum *Summary) error {
	runs, err := m.store.RunsForProject(m.projectID)
	if err != nil {
		return err
	}
	m.logger.Info("migrating runs as test executions", "count", len(runs))

	for i := range runs {
		r := &runs[i]
		key, err := m.mapped(types.EntityRun, r.ID)
		if err != nil {
			return err
		}
		if key != "" {
			sum.Skipped++
			continue
		}

		key, err = m.client.CreateIssue(ctx, m.projectKey, r.Name, runDescription(r), jira.IssueTypeTestExecution)
		if err != nil {
			m.warn(sum, "creating test execution", err, "run", r.ID)
			continue
		}
		testKeys, err := m.testKeysForRun(r.ID)
		if err != nil {
			return err
		}
		if err := m.client.AddTestsToExecution(ctx, key, testKeys); err != nil {
			m.warn(sum, "adding tests to execution", err, "run", r.ID, "key", key)
		}
		if err := m.store.PutMapping(types.EntityRun, r.ID, key); err != nil {
			return err
		}
		sum.Executions++
	}
	return nil
}

func (m *Migrator) migrateResults(ctx context.Context, sum *Summary) error {
	statuses, err := m.store.Statuses()
	if err != nil {
		return err
	}
	results, err := m.store.TestResults()
	if err != nil {
		return err
	}
	m.logger.Info("migrating results", "count", len(results))

	for _, tr := range results {
		execKey, err := m.mapped(types.EntityRun, tr.RunID)
		if err != nil {
			return err
		}
		testKey, err := m.mapped(types.EntityCase, tr.CaseID)
		if err != nil {
			return err
		}
		if execKey == "" || testKey == "" {
			sum.Skipped++
			continue
		}

		status := TranslateStatus(tr.StatusID, statuses)
		result := types.Result{Defects: tr.Defects}
		err = m.client.UpdateTestRunStatus(ctx, execKey, testKey, status, tr.Comment, result.DefectList())
		if err != nil {
			m.warn(sum, "updating test run status", err, "result", tr.ResultID, "execution", execKey)
			continue
		}
		sum.Results++
	}
	return nil
}

func (m *Migrator) migrateMilestones(ctx context.Context, sum *Summary) error {
	milestones, err := m.store.MilestonesForProject(m.projectID)
	if err != nil {
		return err
	}
	m.logger.Info("migrating milestones as versions", "count", len(milestones))

	// Existing versions are reused by name so a pre-populated project (or an
	// earlier pass without a mapping file) does not grow duplicates.
	existing := map[string]string{}
	if versions, err := m.client.GetVersions(ctx, m.projectKey); err != nil {
		m.warn(sum, "listing existing versions", err)
	} else {
		for _, v := range versions {
			existing[v.Name] = v.ID
		}
	}

	for i := range milestones {
		ms := &milestones[i]
		id, err := m.mapped(types.EntityMilestone, ms.ID)
		if err != nil {
			return err
		}
		if id != "" {
			sum.Skipped++
			continue
		}
		if id, ok := existing[ms.Name]; ok {
			if err := m.store.PutMapping(types.EntityMilestone, ms.ID, id); err != nil {
				return err
			}
			sum.Skipped++
			continue
		}

		v := jira.Version{Name: ms.Name, Released: ms.IsCompleted}
		if ms.StartOn != 0 {
			v.StartDate = epochDate(ms.StartOn)
		}
		if ms.DueOn != 0 {
			v.ReleaseDate = epochDate(ms.DueOn)
		}
		created, err := m.client.CreateVersion(ctx, m.projectKey, v, ms.Description)
		if err != nil {
			m.warn(sum, "creating version", err, "milestone", ms.ID)
			continue
		}
		if err := m.store.PutMapping(types.EntityMilestone, ms.ID, created.ID); err != nil {
			return err
		}
		sum.Versions++
	}
	return nil
}

func (m *Migrator) migrateAttachments(ctx context.Context, sum *Summary) error {
	attachments, err := m.store.Attachments("")
	if err != nil {
		return err
	}
	m.logger.Info("migrating attachments", "count", len(attachments))

	for _, a := range attachments {
		key, err := m.attachmentTarget(&a)
		if err != nil {
			return err
		}
		if key == "" {
			sum.Skipped++
			continue
		}
		if _, err := os.Stat(a.LocalPath); err != nil {
			m.warn(sum, "attachment file missing", err, "attachment", a.ID, "path", a.LocalPath)
			continue
		}
		if err := m.client.AddAttachment(ctx, key, a.LocalPath); err != nil {
			m.warn(sum, "uploading attachment", err, "attachment", a.ID, "key", key)
			continue
		}
		sum.Attachments++
	}
	return nil
}

// attachmentTarget resolves the destination issue for one attachment. Case
// attachments go to the Test; result attachments go to the Test Execution of
// the run that produced the result.
func (m *Migrator) attachmentTarget(a *types.Attachment) (string, error) {
	switch a.EntityType {
	case types.AttachmentParentCase:
		return m.mapped(types.EntityCase, a.EntityID)
	case types.AttachmentParentResult:
		runID, err := m.store.RunIDForResult(a.EntityID)
		if errors.Is(err, types.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return m.mapped(types.EntityRun, runID)
	default:
		return "", fmt.Errorf("attachment %d: %w: %s", a.ID, types.ErrInvalidEntityType, a.EntityType)
	}
}

// testKeysForSuite resolves the mapped Test keys of a suite's cases, keeping
// order and dropping unmapped cases.
func (m *Migrator) testKeysForSuite(suiteID int) ([]string, error) {
	ids, err := m.store.CaseIDsForSuite(suiteID)
	if err != nil {
		return nil, err
	}
	return m.caseKeys(ids)
}

// testKeysForRun resolves the mapped Test keys of a run's tests.
func (m *Migrator) testKeysForRun(runID int) ([]string, error) {
	ids, err := m.store.CaseIDsForRun(runID)
	if err != nil {
		return nil, err
	}
	return m.caseKeys(ids)
}

func (m *Migrator) caseKeys(caseIDs []int) ([]string, error) {
	keys := make([]string, 0, len(caseIDs))
	for _, id := range caseIDs {
		key, err := m.mapped(types.EntityCase, id)
		if err != nil {
			return nil, err
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
