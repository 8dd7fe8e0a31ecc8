package types

import "encoding/json"

// Project is the top-level TestRail container. Membership lists (Users,
// Groups) are archived as opaque JSON blobs; they are never migrated.
type Project struct {
	ID                  int             `json:"id"`
	Name                string          `json:"name"`
	Announcement        string          `json:"announcement"`
	ShowAnnouncement    bool            `json:"show_announcement"`
	IsCompleted         bool            `json:"is_completed"`
	SuiteMode           int             `json:"suite_mode"`
	DefaultRoleID       int             `json:"default_role_id"`
	CaseStatusesEnabled bool            `json:"case_statuses_enabled"`
	URL                 string          `json:"url"`
	Users               json.RawMessage `json:"users"`
	Groups              json.RawMessage `json:"groups"`
}

// User is a TestRail account, archived for audit only.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	RoleID   int    `json:"role_id"`
	Role     string `json:"role"`
}
