package testrail

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbridge/pkg/types"
)

func TestCollectionAcceptsBothShapes(t *testing.T) {
	bare := []byte(`[{"id": 1}, {"id": 2}]`)
	items, err := collection("get_projects", bare, "projects")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	wrapped := []byte(`{"offset": 0, "limit": 250, "projects": [{"id": 1}]}`)
	items, err = collection("get_projects", wrapped, "projects")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = collection("get_projects", []byte(`{"offset": 0}`), "projects")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no "projects" field`)
}

func TestRequestsUseBasicAuthAndApiPath(t *testing.T) {
	var gotUser, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _, _ = r.BasicAuth()
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/", "dana@example.com", "apikey")
	require.NoError(t, err)

	_, err = c.GetSections(t.Context(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", gotUser)
	assert.Equal(t, "/api/v2/get_sections/1&suite_id=7", gotQuery)
}

func TestGetCasesCapturesCustomFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{
            "id": 100, "title": "Login", "section_id": 10, "suite_id": 1,
            "custom_preconds": "User exists",
            "custom_steps_separated": [{"content": "Open", "expected": "Opens"}],
            "custom_automation": 2
        }]`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "u", "p")
	require.NoError(t, err)

	cases, err := c.GetCases(t.Context(), 1, 1)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	cf := cases[0].CustomFields
	assert.Equal(t, "User exists", cf.String(types.FieldPreconds))
	assert.Len(t, cf.SeparatedSteps(), 1)
	// Unknown custom fields survive in the bag; standard fields stay out.
	assert.Contains(t, cf, "custom_automation")
	assert.NotContains(t, cf, "title")
}

func TestErrorIncludesEndpointAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "not authorized"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "u", "p")
	require.NoError(t, err)

	_, err = c.GetProjects(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get_projects")
	assert.Contains(t, err.Error(), "status 403")
}

func TestDownloadAttachment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery == "/api/v2/get_attachment/7" {
			io.WriteString(w, "payload")
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "u", "p")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "file.bin")
	require.NoError(t, c.DownloadAttachment(t.Context(), 7, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// A failed download must not leave a file behind.
	dest2 := filepath.Join(t.TempDir(), "missing.bin")
	require.Error(t, c.DownloadAttachment(t.Context(), 8, dest2))
	_, statErr := os.Stat(dest2)
	assert.True(t, os.IsNotExist(statErr))
}
