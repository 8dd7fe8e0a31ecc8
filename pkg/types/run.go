package types

import (
	"encoding/json"
	"strings"
)

// Run is one execution of a suite (or plan entry) and maps to a destination
// Test Execution. The five conventional outcome counters plus the seven
// extension counters are carried verbatim for the execution description
// and later reporting.
type Run struct {
	ID           int             `json:"id"`
	SuiteID      int             `json:"suite_id"`
	ProjectID    int             `json:"project_id"`
	PlanID       int             `json:"plan_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	MilestoneID  int             `json:"milestone_id"`
	AssignedToID int             `json:"assignedto_id"`
	IncludeAll   bool            `json:"include_all"`
	IsCompleted  bool            `json:"is_completed"`
	CompletedOn  int64           `json:"completed_on"`
	Config       string          `json:"config"`
	ConfigIDs    json.RawMessage `json:"config_ids"`

	PassedCount   int `json:"passed_count"`
	BlockedCount  int `json:"blocked_count"`
	UntestedCount int `json:"untested_count"`
	RetestCount   int `json:"retest_count"`
	FailedCount   int `json:"failed_count"`

	CustomStatus1Count int `json:"custom_status1_count"`
	CustomStatus2Count int `json:"custom_status2_count"`
	CustomStatus3Count int `json:"custom_status3_count"`
	CustomStatus4Count int `json:"custom_status4_count"`
	CustomStatus5Count int `json:"custom_status5_count"`
	CustomStatus6Count int `json:"custom_status6_count"`
	CustomStatus7Count int `json:"custom_status7_count"`

	CreatedBy int    `json:"created_by"`
	CreatedOn int64  `json:"created_on"`
	URL       string `json:"url"`
}

// Test instantiates a case inside a run. Priority, type and template are
// snapshots taken at run creation, not live references to the case row, and
// are never resynced.
type Test struct {
	ID               int    `json:"id"`
	CaseID           int    `json:"case_id"`
	RunID            int    `json:"run_id"`
	StatusID         int    `json:"status_id"`
	AssignedToID     int    `json:"assignedto_id"`
	PriorityID       int    `json:"priority_id"`
	TypeID           int    `json:"type_id"`
	MilestoneID      int    `json:"milestone_id"`
	Refs             string `json:"refs"`
	Title            string `json:"title"`
	TemplateID       int    `json:"template_id"`
	Estimate         string `json:"estimate"`
	EstimateForecast string `json:"estimate_forecast"`
	CustomFields     CustomFields
}

// Result is an immutable outcome record attached to a test. Defects is the
// source's comma-delimited list of external defect references.
type Result struct {
	ID           int    `json:"id"`
	TestID       int    `json:"test_id"`
	StatusID     int    `json:"status_id"`
	CreatedBy    int    `json:"created_by"`
	CreatedOn    int64  `json:"created_on"`
	AssignedToID int    `json:"assignedto_id"`
	Comment      string `json:"comment"`
	Version      string `json:"version"`
	Elapsed      string `json:"elapsed"`
	Defects      string `json:"defects"`
	CustomFields CustomFields
}

// DefectList splits the comma-delimited defect references, dropping empty
// entries. Returns nil when the list is effectively empty.
func (r *Result) DefectList() []string {
	var out []string
	for _, d := range strings.Split(r.Defects, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
