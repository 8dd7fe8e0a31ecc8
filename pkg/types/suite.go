package types

// Suite groups cases inside a project. Each suite becomes one destination
// Test Set.
type Suite struct {
	ID          int    `json:"id"`
	ProjectID   int    `json:"project_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	IsMaster    bool   `json:"is_master"`
	IsBaseline  bool   `json:"is_baseline"`
	IsCompleted bool   `json:"is_completed"`
	CompletedOn int64  `json:"completed_on"`
}

// Section is a node of the parent-pointer tree inside a suite. Depth is
// denormalized by the source and stored as received, never recomputed.
type Section struct {
	ID           int    `json:"id"`
	SuiteID      int    `json:"suite_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ParentID     int    `json:"parent_id"` // 0 for root sections
	DisplayOrder int    `json:"display_order"`
	Depth        int    `json:"depth"`
}
