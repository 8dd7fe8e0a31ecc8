package types

import "encoding/json"

// Reference data fetched once per import run: case types, field definitions,
// priorities, statuses and templates. These tables contextualize the staged
// entities; only Status participates in migration (status translation).

// CaseType classifies a test case (functional, regression, ...).
type CaseType struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// FieldDef describes an install-defined custom field on cases or results.
type FieldDef struct {
	ID          int             `json:"id"`
	TypeID      int             `json:"type_id"`
	Name        string          `json:"name"`
	SystemName  string          `json:"system_name"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	IsActive    bool            `json:"is_active"`
	Configs     json.RawMessage `json:"configs"`
}

// Priority is a case priority level.
type Priority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	IsDefault bool   `json:"is_default"`
	Priority  int    `json:"priority"`
}

// Status is a result status definition. IsFinal and IsUntested drive the
// translation to the destination status vocabulary.
type Status struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	ColorDark   int    `json:"color_dark"`
	ColorMedium int    `json:"color_medium"`
	ColorBright int    `json:"color_bright"`
	IsSystem    bool   `json:"is_system"`
	IsUntested  bool   `json:"is_untested"`
	IsFinal     bool   `json:"is_final"`
}

// Template is a case layout definition, scoped to a project. ProjectID is
// filled in at import time; the source payload does not carry it.
type Template struct {
	ID        int    `json:"id"`
	ProjectID int    `json:"-"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}
