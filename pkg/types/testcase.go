package types

// Case is the atomic unit of test definition. SuiteID is denormalized beside
// SectionID so suite-scoped queries avoid a join through sections.
// CustomFields carries the install-defined bag, including the well-known
// preconditions/steps/expected keys the migrator extracts.
type Case struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	SectionID        int    `json:"section_id"`
	TemplateID       int    `json:"template_id"`
	TypeID           int    `json:"type_id"`
	PriorityID       int    `json:"priority_id"`
	MilestoneID      int    `json:"milestone_id"`
	Refs             string `json:"refs"`
	CreatedBy        int    `json:"created_by"`
	CreatedOn        int64  `json:"created_on"`
	UpdatedBy        int    `json:"updated_by"`
	UpdatedOn        int64  `json:"updated_on"`
	Estimate         string `json:"estimate"`
	EstimateForecast string `json:"estimate_forecast"`
	SuiteID          int    `json:"suite_id"`
	CustomFields     CustomFields
}
