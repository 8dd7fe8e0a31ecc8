package migrator

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbridge/internal/jira"
	"railbridge/internal/staging"
	"railbridge/pkg/types"
)

// fakeJira records everything the migrator sends to the destination.
type fakeJira struct {
	nextID        int
	issues        map[string]string            // key -> issue type
	steps         map[string][]map[string]any  // test key -> step payloads
	inSet         map[string][]string          // set key -> test keys
	inExec        map[string][]string          // exec key -> test keys
	runUpdates    map[int]map[string]any       // test-run id -> last update
	versions      []map[string]any
	attachments   map[string]int // issue key -> upload count
	failSummaries map[string]bool
}

func newFakeJira() *fakeJira {
	return &fakeJira{
		issues:        map[string]string{},
		steps:         map[string][]map[string]any{},
		inSet:         map[string][]string{},
		inExec:        map[string][]string{},
		runUpdates:    map[int]map[string]any{},
		attachments:   map[string]int{},
		failSummaries: map[string]bool{},
	}
}

func (f *fakeJira) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields struct {
				Summary   string `json:"summary"`
				IssueType struct {
					Name string `json:"name"`
				} `json:"issuetype"`
			} `json:"fields"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if f.failSummaries[payload.Fields.Summary] {
			http.Error(w, `{"errorMessages": ["summary rejected"]}`, http.StatusBadRequest)
			return
		}
		f.nextID++
		key := fmt.Sprintf("PROJ-%d", f.nextID)
		f.issues[key] = payload.Fields.IssueType.Name
		fmt.Fprintf(w, `{"id": "%d", "key": "%s"}`, 10000+f.nextID, key)
	})

	mux.HandleFunc("POST /rest/raven/2.0/api/test/{key}/steps", func(w http.ResponseWriter, r *http.Request) {
		var step map[string]any
		json.NewDecoder(r.Body).Decode(&step)
		key := r.PathValue("key")
		f.steps[key] = append(f.steps[key], step)
		io.WriteString(w, `{}`)
	})

	mux.HandleFunc("POST /rest/raven/1.0/api/testset/{key}/test", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Add []string `json:"add"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		key := r.PathValue("key")
		f.inSet[key] = append(f.inSet[key], payload.Add...)
		io.WriteString(w, `{}`)
	})

	mux.HandleFunc("POST /rest/raven/1.0/api/testexec/{key}/test", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Add []string `json:"add"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		key := r.PathValue("key")
		f.inExec[key] = append(f.inExec[key], payload.Add...)
		io.WriteString(w, `{}`)
	})

	mux.HandleFunc("GET /rest/raven/1.0/api/testexec/{key}/test", func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		var tests []map[string]any
		for i, testKey := range f.inExec[key] {
			tests = append(tests, map[string]any{"id": 9000 + i, "key": testKey})
		}
		json.NewEncoder(w).Encode(tests)
	})

	mux.HandleFunc("PUT /rest/raven/2.0/api/testrun/{id}", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		var id int
		fmt.Sscanf(r.PathValue("id"), "%d", &id)
		f.runUpdates[id] = payload
		io.WriteString(w, `{}`)
	})

	mux.HandleFunc("GET /rest/api/2/project/{key}/versions", func(w http.ResponseWriter, r *http.Request) {
		existing := []map[string]any{{"id": "10050", "name": "Release 1.0"}}
		json.NewEncoder(w).Encode(existing)
	})

	mux.HandleFunc("POST /rest/api/2/version", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		f.versions = append(f.versions, payload)
		fmt.Fprintf(w, `{"id": "%d", "name": "%s"}`, 10100+len(f.versions), payload["name"])
	})

	mux.HandleFunc("POST /rest/api/2/issue/{key}/attachments", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		f.attachments[r.PathValue("key")]++
		io.WriteString(w, `[{}]`)
	})

	return mux
}

// seedStore stages one suite with two cases, one run with results, two
// milestones and a case attachment.
func seedStore(t *testing.T, store *staging.Store, attachmentDir string) {
	t.Helper()

	require.NoError(t, store.UpsertStatuses([]types.Status{
		{ID: 1, Name: "passed", IsFinal: true},
		{ID: 5, Name: "failed"},
	}))
	require.NoError(t, store.UpsertSuites([]types.Suite{
		{ID: 2, ProjectID: 1, Name: "Smoke", Description: "Smoke checks"},
	}))
	require.NoError(t, store.UpsertSections([]types.Section{
		{ID: 10, SuiteID: 2, Name: "Auth"},
	}))
	require.NoError(t, store.UpsertCases([]types.Case{
		{ID: 100, Title: "Login", SectionID: 10, SuiteID: 2, CustomFields: types.CustomFields{
			types.FieldSteps:    "Open app\nLogin",
			types.FieldExpected: "Dashboard loads",
		}},
		{ID: 101, Title: "Logout", SectionID: 10, SuiteID: 2},
	}))
	require.NoError(t, store.UpsertMilestones([]types.Milestone{
		{ID: 4, ProjectID: 1, Name: "Release 1.0", DueOn: 1700000000},
		{ID: 5, ProjectID: 1, Name: "Release 2.0", IsCompleted: true, StartOn: 1690000000},
	}))
	require.NoError(t, store.UpsertRuns([]types.Run{
		{ID: 20, ProjectID: 1, SuiteID: 2, Name: "Nightly", CreatedOn: 1700000000, PassedCount: 1, FailedCount: 1},
	}))
	require.NoError(t, store.UpsertTests([]types.Test{
		{ID: 200, CaseID: 100, RunID: 20},
		{ID: 201, CaseID: 101, RunID: 20},
	}))
	require.NoError(t, store.UpsertResults([]types.Result{
		{ID: 500, TestID: 200, StatusID: 1, Comment: "all good", CreatedOn: 1700000100},
		{ID: 501, TestID: 201, StatusID: 5, Defects: "BUG-1, BUG-2", CreatedOn: 1700000200},
	}))

	path := filepath.Join(attachmentDir, "case_100_shot.png")
	require.NoError(t, os.WriteFile(path, []byte("PNG!"), 0o644))
	require.NoError(t, store.UpsertAttachments([]types.Attachment{
		{ID: 7, EntityType: types.AttachmentParentCase, EntityID: 100, Filename: "shot.png", LocalPath: path},
		{ID: 8, EntityType: types.AttachmentParentResult, EntityID: 501, Filename: "trace.log",
			LocalPath: filepath.Join(attachmentDir, "missing.log")},
	}))
}

func setupMigrator(t *testing.T, fake *fakeJira) (*Migrator, *staging.Store, string) {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	client, err := jira.New(srv.URL, "lead", "hunter2")
	require.NoError(t, err)

	store, err := staging.Open(filepath.Join(t.TempDir(), "staging.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	seedStore(t, store, dir)

	mappingPath := filepath.Join(t.TempDir(), "mapping.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(client, store, 1, "PROJ", mappingPath, WithLogger(logger))
	return m, store, mappingPath
}

func TestRunMigratesEverything(t *testing.T) {
	fake := newFakeJira()
	m, store, mappingPath := setupMigrator(t, fake)

	sum, err := m.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Tests)
	assert.Equal(t, 1, sum.TestSets)
	assert.Equal(t, 1, sum.Executions)
	assert.Equal(t, 2, sum.Results)
	// Release 1.0 already exists as a version; only 2.0 is created.
	assert.Equal(t, 1, sum.Versions)
	assert.Equal(t, 1, sum.Attachments)
	// The result attachment's file is gone from disk, a warning.
	assert.Equal(t, 1, sum.Warnings)

	// Issue types landed as expected.
	typeCounts := map[string]int{}
	for _, it := range fake.issues {
		typeCounts[it]++
	}
	assert.Equal(t, 2, typeCounts[jira.IssueTypeTest])
	assert.Equal(t, 1, typeCounts[jira.IssueTypeTestSet])
	assert.Equal(t, 1, typeCounts[jira.IssueTypeTestExecution])

	// Case 100's plain-text steps were uploaded in order.
	loginKey, err := store.GetMapping(types.EntityCase, 100)
	require.NoError(t, err)
	require.Len(t, fake.steps[loginKey], 2)
	assert.Equal(t, float64(1), fake.steps[loginKey][0]["index"])

	// The execution holds both tests and both results were written.
	execKey, err := store.GetMapping(types.EntityRun, 20)
	require.NoError(t, err)
	assert.Len(t, fake.inExec[execKey], 2)
	require.Len(t, fake.runUpdates, 2)

	// The failed result carried its defects.
	var failUpdate map[string]any
	for _, u := range fake.runUpdates {
		if u["status"] == jira.StatusFail {
			failUpdate = u
		}
	}
	require.NotNil(t, failUpdate)
	assert.ElementsMatch(t, []any{"BUG-1", "BUG-2"}, failUpdate["defects"])

	// Existing version reused: milestone 4 maps to the pre-existing id.
	versionID, err := store.GetMapping(types.EntityMilestone, 4)
	require.NoError(t, err)
	assert.Equal(t, "10050", versionID)

	// The attachment landed on the Test; the one with a missing file did not upload.
	assert.Equal(t, 1, fake.attachments[loginKey])

	// The mapping file was exported.
	data, err := os.ReadFile(mappingPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), loginKey))
}

func TestRunResumesFromMappings(t *testing.T) {
	fake := newFakeJira()
	m, _, _ := setupMigrator(t, fake)

	_, err := m.Run(t.Context())
	require.NoError(t, err)
	created := len(fake.issues)

	sum, err := m.Run(t.Context())
	require.NoError(t, err)

	// Nothing new is created on the second pass.
	assert.Len(t, fake.issues, created)
	assert.Zero(t, sum.Tests)
	assert.Zero(t, sum.TestSets)
	assert.Zero(t, sum.Executions)
	assert.Positive(t, sum.Skipped)
}

func TestRunSurvivesItemFailure(t *testing.T) {
	fake := newFakeJira()
	fake.failSummaries["Login"] = true
	m, store, _ := setupMigrator(t, fake)

	sum, err := m.Run(t.Context())
	require.NoError(t, err)

	// The rejected case is skipped; the other one still migrates and no
	// mapping is recorded for the failure.
	assert.Equal(t, 1, sum.Tests)
	assert.Positive(t, sum.Warnings)

	_, err = store.GetMapping(types.EntityCase, 100)
	assert.ErrorIs(t, err, types.ErrNotFound)

	logoutKey, err := store.GetMapping(types.EntityCase, 101)
	require.NoError(t, err)
	assert.NotEmpty(t, logoutKey)
}
