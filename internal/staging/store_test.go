package staging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbridge/pkg/types"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "staging.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := setupStore(t)

	counts, err := s.Counts()
	require.NoError(t, err)
	assert.Len(t, counts, len(EntityTables()))
	for table, n := range counts {
		assert.Zero(t, n, "table %s should start empty", table)
	}
}

func TestUpsertCasesIsIdempotent(t *testing.T) {
	s := setupStore(t)

	c := types.Case{
		ID:        100,
		Title:     "Login with valid credentials",
		SectionID: 5,
		SuiteID:   2,
		CustomFields: types.CustomFields{
			"custom_preconds": "User exists",
		},
	}
	require.NoError(t, s.UpsertCases([]types.Case{c}))

	c.Title = "Login with valid credentials (renamed)"
	require.NoError(t, s.UpsertCases([]types.Case{c}))

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM cases`).Scan(&n))
	assert.Equal(t, 1, n)

	var title string
	require.NoError(t, s.DB().QueryRow(`SELECT title FROM cases WHERE id = 100`).Scan(&title))
	assert.Equal(t, "Login with valid credentials (renamed)", title)
}

func TestCasesForProjectJoinsNames(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.UpsertSuites([]types.Suite{{ID: 2, ProjectID: 1, Name: "Smoke"}}))
	require.NoError(t, s.UpsertSections([]types.Section{{ID: 5, SuiteID: 2, Name: "Auth"}}))
	require.NoError(t, s.UpsertPriorities([]types.Priority{{ID: 3, Name: "High"}}))
	require.NoError(t, s.UpsertCases([]types.Case{
		{ID: 100, Title: "Login", SectionID: 5, SuiteID: 2, PriorityID: 3},
		{ID: 101, Title: "Logout", SectionID: 999, SuiteID: 2},
	}))

	cases, err := s.CasesForProject(1)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "Auth", cases[0].SectionName)
	assert.Equal(t, "High", cases[0].PriorityName)

	// Dangling references degrade to empty names, not errors.
	assert.Empty(t, cases[1].SectionName)
	assert.Empty(t, cases[1].PriorityName)
}

func TestRunsForProjectOrdersByCreation(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.UpsertRuns([]types.Run{
		{ID: 30, ProjectID: 1, Name: "Later run", CreatedOn: 2000},
		{ID: 10, ProjectID: 1, Name: "Earlier run", CreatedOn: 1000},
		{ID: 20, ProjectID: 2, Name: "Other project", CreatedOn: 1500},
	}))

	runs, err := s.RunsForProject(1)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Earlier run", runs[0].Name)
	assert.Equal(t, "Later run", runs[1].Name)
}

func TestTestResultsSkipsResultlessTests(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.UpsertTests([]types.Test{
		{ID: 1, CaseID: 100, RunID: 10},
		{ID: 2, CaseID: 101, RunID: 10},
	}))
	require.NoError(t, s.UpsertResults([]types.Result{
		{ID: 500, TestID: 1, StatusID: 1, Comment: "ok", CreatedOn: 1234},
	}))

	results, err := s.TestResults()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].TestID)
	assert.Equal(t, 100, results[0].CaseID)
	assert.Equal(t, 500, results[0].ResultID)
	assert.Equal(t, "ok", results[0].Comment)
}

func TestRunIDForResult(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.UpsertTests([]types.Test{{ID: 1, CaseID: 100, RunID: 10}}))
	require.NoError(t, s.UpsertResults([]types.Result{{ID: 500, TestID: 1}}))

	runID, err := s.RunIDForResult(500)
	require.NoError(t, err)
	assert.Equal(t, 10, runID)

	_, err = s.RunIDForResult(999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAttachmentsKeyedByParent(t *testing.T) {
	s := setupStore(t)

	// Same attachment id under two parents is two rows.
	require.NoError(t, s.UpsertAttachments([]types.Attachment{
		{ID: 7, EntityType: types.AttachmentParentCase, EntityID: 100, Filename: "shot.png"},
		{ID: 7, EntityType: types.AttachmentParentResult, EntityID: 500, Filename: "shot.png"},
	}))

	all, err := s.Attachments("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ok, err := s.HasAttachment(7, types.AttachmentParentCase, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasAttachment(7, types.AttachmentParentCase, 101)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSectionsForSuitePreservesHierarchy(t *testing.T) {
	s := setupStore(t)

	require.NoError(t, s.UpsertSections([]types.Section{
		{ID: 2, SuiteID: 1, Name: "Child", ParentID: 1, Depth: 1, DisplayOrder: 2},
		{ID: 1, SuiteID: 1, Name: "Root", Depth: 0, DisplayOrder: 1},
	}))

	sections, err := s.SectionsForSuite(1)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Root", sections[0].Name)
	assert.Zero(t, sections[0].ParentID)
	assert.Equal(t, 1, sections[1].ParentID)
}
