package migrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"railbridge/internal/jira"
	"railbridge/pkg/types"
)

func TestTranslateStatusFromDefinitions(t *testing.T) {
	statuses := []types.Status{
		{ID: 1, Name: "passed", IsFinal: true},
		{ID: 3, Name: "untested", IsUntested: true},
		{ID: 4, Name: "retest"},
		{ID: 9, Name: "skipped", IsFinal: true, IsUntested: true},
	}

	tests := []struct {
		name     string
		statusID int
		want     string
	}{
		{"final maps to pass", 1, jira.StatusPass},
		{"untested maps to todo", 3, jira.StatusTodo},
		{"non-final maps to fail", 4, jira.StatusFail},
		{"untested wins over final", 9, jira.StatusTodo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateStatus(tt.statusID, statuses))
		})
	}
}

func TestTranslateStatusFallback(t *testing.T) {
	// No staged definitions: the built-in table decides.
	tests := []struct {
		statusID int
		want     string
	}{
		{1, jira.StatusPass},
		{2, jira.StatusBlocked},
		{3, jira.StatusTodo},
		{4, jira.StatusFail},
		{5, jira.StatusFail},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TranslateStatus(tt.statusID, nil))
	}
}

func TestTranslateStatusIsTotal(t *testing.T) {
	// Ids no install defines still translate.
	assert.Equal(t, jira.StatusTodo, TranslateStatus(12345, nil))
	assert.Equal(t, jira.StatusTodo, TranslateStatus(-1, []types.Status{{ID: 1}}))
}
