package migrator

import (
	"railbridge/internal/jira"
	"railbridge/pkg/types"
)

// fallbackStatus maps the source's built-in status ids for installs whose
// status table was not staged. Retest counts as a failure: the work is not
// done and the destination has no retest notion.
var fallbackStatus = map[int]string{
	1: jira.StatusPass,
	2: jira.StatusBlocked,
	3: jira.StatusTodo,
	4: jira.StatusFail,
	5: jira.StatusFail,
}

// TranslateStatus converts a source result status to the destination
// vocabulary. The staged status definitions take precedence: a final,
// non-untested status passed; an untested status is still to do; everything
// else failed. Unknown ids fall back to the built-in table, then to TODO,
// so the translation is total.
func TranslateStatus(statusID int, statuses []types.Status) string {
	for _, s := range statuses {
		if s.ID != statusID {
			continue
		}
		switch {
		case s.IsUntested:
			return jira.StatusTodo
		case s.IsFinal:
			return jira.StatusPass
		default:
			return jira.StatusFail
		}
	}
	if mapped, ok := fallbackStatus[statusID]; ok {
		return mapped
	}
	return jira.StatusTodo
}
