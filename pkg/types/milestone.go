package types

// Milestone belongs to a project and maps to a destination version. All
// timestamps are Unix epoch seconds as delivered by the source. Name is the
// natural key for the duplicate check against existing destination versions.
type Milestone struct {
	ID          int    `json:"id"`
	ProjectID   int    `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartOn     int64  `json:"start_on"`
	StartedOn   int64  `json:"started_on"`
	IsStarted   bool   `json:"is_started"`
	DueOn       int64  `json:"due_on"`
	IsCompleted bool   `json:"is_completed"`
	CompletedOn int64  `json:"completed_on"`
	ParentID    int    `json:"parent_id"` // 0 for top-level milestones
	URL         string `json:"url"`
}
