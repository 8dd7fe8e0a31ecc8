package types

import "encoding/json"

// Plan groups runs under a milestone. The entries substructure is staged
// opaquely; the migrator does not decompose plans into destination artifacts.
type Plan struct {
	ID           int             `json:"id"`
	ProjectID    int             `json:"project_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	MilestoneID  int             `json:"milestone_id"`
	AssignedToID int             `json:"assignedto_id"`
	IsCompleted  bool            `json:"is_completed"`
	CompletedOn  int64           `json:"completed_on"`
	CreatedBy    int             `json:"created_by"`
	CreatedOn    int64           `json:"created_on"`
	URL          string          `json:"url"`
	Entries      json.RawMessage `json:"entries"`
}
