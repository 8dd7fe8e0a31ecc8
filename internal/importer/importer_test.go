package importer

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbridge/internal/staging"
	"railbridge/internal/testrail"
	"railbridge/pkg/types"
)

// fixtureServer serves a small two-suite project. Suite 2's sections endpoint
// fails so partial-failure behavior can be observed, and attachment 8 has an
// empty payload.
func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	responses := map[string]string{
		"/api/v2/get_project/1": `{"id": 1, "name": "Payments", "suite_mode": 3}`,
		"/api/v2/get_users":     `[{"id": 9, "name": "Dana", "email": "dana@example.com"}]`,
		"/api/v2/get_case_types": `{"case_types": [
            {"id": 1, "name": "Functional", "is_default": true}]}`,
		"/api/v2/get_case_fields":   `[]`,
		"/api/v2/get_result_fields": `[]`,
		"/api/v2/get_priorities":    `[{"id": 3, "name": "High", "short_name": "H"}]`,
		"/api/v2/get_statuses": `[
            {"id": 1, "name": "passed", "is_final": true},
            {"id": 5, "name": "failed", "is_final": true}]`,
		"/api/v2/get_templates/1": `[{"id": 1, "name": "Test Case (Text)", "is_default": true}]`,
		"/api/v2/get_suites/1": `[
            {"id": 1, "project_id": 1, "name": "Smoke"},
            {"id": 2, "project_id": 1, "name": "Regression"}]`,
		"/api/v2/get_sections/1&suite_id=1": `{"sections": [
            {"id": 10, "suite_id": 1, "name": "Auth", "depth": 0}]}`,
		"/api/v2/get_milestones/1": `[{"id": 4, "project_id": 1, "name": "Release 1.0"}]`,
		"/api/v2/get_cases/1&suite_id=1": `{"cases": [
            {"id": 100, "title": "Login", "section_id": 10, "suite_id": 1,
             "custom_preconds": "User exists", "custom_steps": "Open app\nSubmit form"},
            {"id": 101, "title": "Logout", "section_id": 10, "suite_id": 1}]}`,
		"/api/v2/get_cases/1&suite_id=2":            `[]`,
		"/api/v2/get_attachments_for_case/100":      `[{"id": 7, "filename": "shot.png", "size": 4}]`,
		"/api/v2/get_attachments_for_case/101":      `[{"id": 8, "filename": "empty.log", "size": 0}]`,
		"/api/v2/get_plans/1":                       `[]`,
		"/api/v2/get_runs/1":                        `[{"id": 20, "project_id": 1, "suite_id": 1, "name": "Nightly", "created_on": 1700000000}]`,
		"/api/v2/get_tests/20":                      `[{"id": 200, "case_id": 100, "run_id": 20, "status_id": 1, "title": "Login"}]`,
		"/api/v2/get_results/200":                   `[{"id": 500, "test_id": 200, "status_id": 1, "comment": "ok", "created_on": 1700000100}]`,
		"/api/v2/get_attachments_for_result/500":    `[]`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.RawQuery
		switch {
		case query == "/api/v2/get_sections/1&suite_id=2":
			http.Error(w, `{"error": "section listing unavailable"}`, http.StatusInternalServerError)
		case query == "/api/v2/get_attachment/7":
			io.WriteString(w, "PNG!")
		case query == "/api/v2/get_attachment/8":
			// Empty body.
		default:
			body, ok := responses[query]
			if !ok {
				http.NotFound(w, r)
				return
			}
			io.WriteString(w, body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupImporter(t *testing.T, srv *httptest.Server) (*Importer, *staging.Store) {
	t.Helper()

	client, err := testrail.New(srv.URL, "user", "secret")
	require.NoError(t, err)

	store, err := staging.Open(filepath.Join(t.TempDir(), "staging.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, store, dir, WithLogger(logger)), store
}

func TestRunStagesProject(t *testing.T) {
	srv := fixtureServer(t)
	imp, store := setupImporter(t, srv)

	sum, err := imp.Run(t.Context(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Counts["projects"])
	assert.Equal(t, 2, sum.Counts["suites"])
	assert.Equal(t, 2, sum.Counts["cases"])
	assert.Equal(t, 1, sum.Counts["runs"])
	assert.Equal(t, 1, sum.Counts["tests"])
	assert.Equal(t, 1, sum.Counts["results"])

	cases, err := store.CasesForProject(1)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "User exists", cases[0].CustomFields.String(types.FieldPreconds))
}

func TestRunSurvivesCollectionFailure(t *testing.T) {
	srv := fixtureServer(t)
	imp, store := setupImporter(t, srv)

	sum, err := imp.Run(t.Context(), 1)
	require.NoError(t, err)

	// Suite 2's sections failed; suite 1's survived, and the rest of the
	// import carried on regardless.
	assert.Equal(t, 1, sum.Counts["sections"])
	assert.Positive(t, sum.Warnings)

	sections, err := store.SectionsForSuite(1)
	require.NoError(t, err)
	assert.Len(t, sections, 1)
	assert.Equal(t, 1, sum.Counts["results"])
}

func TestRunSkipsEmptyAttachments(t *testing.T) {
	srv := fixtureServer(t)
	imp, store := setupImporter(t, srv)

	sum, err := imp.Run(t.Context(), 1)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Counts["attachments"])

	attachments, err := store.Attachments("")
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, 7, attachments[0].ID)
	assert.Equal(t, types.AttachmentParentCase, attachments[0].EntityType)
	assert.Equal(t, 100, attachments[0].EntityID)

	data, err := os.ReadFile(attachments[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "PNG!", string(data))
}

func TestRunFailsOnReferenceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.RawQuery {
		case "/api/v2/get_project/1":
			io.WriteString(w, `{"id": 1, "name": "Payments"}`)
		case "/api/v2/get_statuses":
			http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
		default:
			io.WriteString(w, `[]`)
		}
	}))
	t.Cleanup(srv.Close)
	imp, store := setupImporter(t, srv)

	// Statuses drive result translation later, so their loss aborts the run.
	_, err := imp.Run(t.Context(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statuses")

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Zero(t, counts["suites"])
}

func TestRunFailsWithoutProject(t *testing.T) {
	srv := fixtureServer(t)
	imp, _ := setupImporter(t, srv)

	_, err := imp.Run(t.Context(), 42)
	require.Error(t, err)
}

func TestRunIsRepeatable(t *testing.T) {
	srv := fixtureServer(t)
	imp, store := setupImporter(t, srv)

	_, err := imp.Run(t.Context(), 1)
	require.NoError(t, err)
	sum, err := imp.Run(t.Context(), 1)
	require.NoError(t, err)

	// Second pass refreshes rows and skips the already-downloaded file.
	assert.Zero(t, sum.Counts["attachments"])

	counts, err := store.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, counts["cases"])
	assert.Equal(t, 1, counts["attachments"])
}
