package config

import (
	"encoding/json"
	"fmt"
	"os"

	"railbridge/pkg/types"
)

// Selection records which source project is imported and which Jira project
// receives the migrated artifacts. Saved by the select command and required
// by import and migrate.
type Selection struct {
	TestRailProjectID   int    `json:"testrail_project_id"`
	TestRailProjectName string `json:"testrail_project_name"`
	JiraProjectKey      string `json:"jira_project_key"`
	JiraProjectName     string `json:"jira_project_name"`
}

// LoadSelection reads the selection file. A missing file is ErrNoSelection.
func LoadSelection(path string) (*Selection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.ErrNoSelection
		}
		return nil, fmt.Errorf("read selection: %w", err)
	}
	var sel Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("parse selection: %w", err)
	}
	if sel.TestRailProjectID == 0 {
		return nil, types.ErrNoSelection
	}
	return &sel, nil
}

// SaveSelection writes the selection file.
func SaveSelection(path string, sel *Selection) error {
	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	return nil
}
