package staging

import (
	"database/sql"
	"fmt"

	"railbridge/pkg/types"
)

// CaseDetail is a case joined with the names the migrator embeds in the
// Test description. SectionName and PriorityName may be empty when the
// parent fetch failed and the reference is dangling.
type CaseDetail struct {
	types.Case
	SectionName  string
	PriorityName string
}

// UpsertCases stores the cases of one suite in one transaction. The
// custom-field bag is serialized to JSON text.
func (s *Store) UpsertCases(cases []types.Case) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO cases
            (id, title, section_id, template_id, type_id, priority_id, milestone_id,
             refs, created_by, created_on, updated_by, updated_on, estimate,
             estimate_forecast, suite_id, custom_fields)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, c := range cases {
			_, err := tx.Exec(stmt, c.ID, c.Title, c.SectionID, c.TemplateID, c.TypeID,
				c.PriorityID, c.MilestoneID, c.Refs, c.CreatedBy, c.CreatedOn,
				c.UpdatedBy, c.UpdatedOn, c.Estimate, c.EstimateForecast, c.SuiteID,
				c.CustomFields.Encode())
			if err != nil {
				return fmt.Errorf("upserting case %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// CasesForProject returns case details for one project (via the suite join),
// or for all projects when projectID is 0.
func (s *Store) CasesForProject(projectID int) ([]CaseDetail, error) {
	query := `SELECT c.id, c.title, c.section_id, c.template_id, c.type_id,
            c.priority_id, c.milestone_id, c.refs, c.created_by, c.created_on,
            c.updated_by, c.updated_on, c.estimate, c.estimate_forecast,
            c.suite_id, c.custom_fields,
            COALESCE(s.name, ''), COALESCE(p.name, '')
        FROM cases c
        LEFT JOIN sections s ON c.section_id = s.id
        LEFT JOIN priorities p ON c.priority_id = p.id`
	var args []any
	if projectID != 0 {
		query += `
        LEFT JOIN suites su ON c.suite_id = su.id
        WHERE su.project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY c.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}
	defer rows.Close()

	var details []CaseDetail
	for rows.Next() {
		var d CaseDetail
		var customFields string
		err := rows.Scan(&d.ID, &d.Title, &d.SectionID, &d.TemplateID, &d.TypeID,
			&d.PriorityID, &d.MilestoneID, &d.Refs, &d.CreatedBy, &d.CreatedOn,
			&d.UpdatedBy, &d.UpdatedOn, &d.Estimate, &d.EstimateForecast, &d.SuiteID,
			&customFields, &d.SectionName, &d.PriorityName)
		if err != nil {
			return nil, fmt.Errorf("scanning case: %w", err)
		}
		d.CustomFields = types.ParseCustomFields(customFields)
		details = append(details, d)
	}
	return details, rows.Err()
}

// CaseIDsForSuite returns the ids of all cases staged under one suite.
func (s *Store) CaseIDsForSuite(suiteID int) ([]int, error) {
	rows, err := s.db.Query(`SELECT id FROM cases WHERE suite_id = ? ORDER BY id`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("querying case ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning case id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
