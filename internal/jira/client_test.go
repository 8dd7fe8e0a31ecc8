package jira

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsToken(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{"short password", "hunter2", false},
		{"long base64 string", "NDc4MzI5ODpUaGlzSXNBVG9rZW5Gb3JTdXJl", true},
		{"long with punctuation", strings.Repeat("p@ss word!", 5), true},
		{"31 base64 chars", strings.Repeat("a", 31), true},
		{"30 base64 chars", strings.Repeat("a", 30), false},
		{"base64 with padding", strings.Repeat("Qg", 16) + "==", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsToken(tt.secret))
		})
	}
}

func TestAuthModeFollowsSecretShape(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	// Password: basic auth.
	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)
	require.NoError(t, c.Myself(t.Context()))
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "))

	// Token-shaped secret: bearer.
	token := strings.Repeat("Zm9v", 12)
	c, err = New(srv.URL, "dana", token)
	require.NoError(t, err)
	require.NoError(t, c.Myself(t.Context()))
	assert.Equal(t, "Bearer "+token, gotAuth)
}

func TestCreateIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issue", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		fields := payload["fields"].(map[string]any)
		assert.Equal(t, "Login", fields["summary"])
		assert.Equal(t, map[string]any{"name": "Test"}, fields["issuetype"])
		io.WriteString(w, `{"id": "10001", "key": "PROJ-1"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	key, err := c.CreateIssue(t.Context(), "PROJ", "Login", "desc", IssueTypeTest)
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", key)
}

func TestErrorsCarryStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["field required"]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	_, err = c.CreateIssue(t.Context(), "PROJ", "Login", "", IssueTypeTest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "field required")
}

func TestUpdateTestRunStatus(t *testing.T) {
	var updated map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/raven/1.0/api/testexec/PROJ-9/test":
			io.WriteString(w, `[{"id": 77, "key": "PROJ-1"}, {"id": 78, "key": "PROJ-2"}]`)
		case r.Method == http.MethodPut && r.URL.Path == "/rest/raven/2.0/api/testrun/78":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&updated))
			io.WriteString(w, `{}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	err = c.UpdateTestRunStatus(t.Context(), "PROJ-9", "PROJ-2", StatusFail, "broken", []string{"BUG-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusFail, updated["status"])
	assert.Equal(t, "broken", updated["comment"])
	assert.Equal(t, []any{"BUG-1"}, updated["defects"])

	// A test missing from the execution is an error, not a silent no-op.
	err = c.UpdateTestRunStatus(t.Context(), "PROJ-9", "PROJ-404", StatusPass, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in execution")
}

func TestAddTestStepsSendsOnePostPerStep(t *testing.T) {
	var posts []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/raven/2.0/api/test/PROJ-1/steps", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		posts = append(posts, payload)
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	steps := []TestStep{
		{Index: 1, Action: "Open app"},
		{Index: 2, Action: "Login", Expected: "Dashboard loads"},
	}
	require.NoError(t, c.AddTestSteps(t.Context(), "PROJ-1", steps))

	require.Len(t, posts, 2)
	assert.Equal(t, float64(1), posts[0]["index"])
	fields := posts[1]["fields"].(map[string]any)
	assert.Equal(t, "Login", fields["Action"])
	assert.Equal(t, "Dashboard loads", fields["Expected Result"])
}

func TestAddTestsToExecutionSkipsEmptyList(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	require.NoError(t, c.AddTestsToExecution(t.Context(), "PROJ-9", nil))
	assert.Zero(t, calls)
}

func TestCreateVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Release 1.0", payload["name"])
		assert.Equal(t, "PROJ", payload["project"])
		assert.Equal(t, "2024-01-31", payload["releaseDate"])
		fmt.Fprint(w, `{"id": "10050", "name": "Release 1.0"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	v := Version{Name: "Release 1.0", ReleaseDate: "2024-01-31"}
	created, err := c.CreateVersion(t.Context(), "PROJ", v, "")
	require.NoError(t, err)
	assert.Equal(t, "10050", created.ID)
}

func TestSearchIssues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/search", r.URL.Path)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, `project = PROJ AND issuetype = Test`, payload["jql"])
		assert.Equal(t, float64(50), payload["maxResults"])
		fmt.Fprint(w, `{"issues": [{"key": "PROJ-1"}, {"key": "PROJ-2"}]}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	issues, err := c.SearchIssues(t.Context(), `project = PROJ AND issuetype = Test`, 50)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "PROJ-2", issues[1].Key)
}

func TestGetIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issue/PROJ-7", r.URL.Path)
		fmt.Fprint(w, `{"key": "PROJ-7", "fields": {"summary": "Login works"}}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	issue, err := c.GetIssue(t.Context(), "PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-7", issue["key"])
}

func TestAddComment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issue/PROJ-3/comment", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Migrated from TestRail", payload["body"])
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	require.NoError(t, c.AddComment(t.Context(), "PROJ-3", "Migrated from TestRail"))
}

func TestCreateLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issueLink", r.URL.Path)
		var payload struct {
			Type    map[string]string `json:"type"`
			Inward  map[string]string `json:"inwardIssue"`
			Outward map[string]string `json:"outwardIssue"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Relates", payload.Type["name"])
		assert.Equal(t, "PROJ-1", payload.Inward["key"])
		assert.Equal(t, "BUG-9", payload.Outward["key"])
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "dana", "hunter2")
	require.NoError(t, err)

	require.NoError(t, c.CreateLink(t.Context(), "PROJ-1", "BUG-9", "Relates"))
}
