package staging

import (
	"database/sql"
	"fmt"

	"railbridge/pkg/types"
)

// UpsertSuites stores the suites of one project in one transaction.
func (s *Store) UpsertSuites(suites []types.Suite) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO suites
            (id, project_id, name, description, url, is_master, is_baseline, is_completed, completed_on)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, su := range suites {
			_, err := tx.Exec(stmt, su.ID, su.ProjectID, su.Name, su.Description, su.URL,
				su.IsMaster, su.IsBaseline, su.IsCompleted, su.CompletedOn)
			if err != nil {
				return fmt.Errorf("upserting suite %d: %w", su.ID, err)
			}
		}
		return nil
	})
}

// UpsertSections stores the sections of one suite in one transaction. Depth
// and display order are stored as received.
func (s *Store) UpsertSections(sections []types.Section) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO sections
            (id, suite_id, name, description, parent_id, display_order, depth)
            VALUES (?, ?, ?, ?, ?, ?, ?)`
		for _, sec := range sections {
			_, err := tx.Exec(stmt, sec.ID, sec.SuiteID, sec.Name, sec.Description,
				sec.ParentID, sec.DisplayOrder, sec.Depth)
			if err != nil {
				return fmt.Errorf("upserting section %d: %w", sec.ID, err)
			}
		}
		return nil
	})
}

// SuitesForProject returns the suites of one project, or all suites when
// projectID is 0.
func (s *Store) SuitesForProject(projectID int) ([]types.Suite, error) {
	query := `SELECT id, project_id, name, description, url, is_master, is_baseline,
        is_completed, completed_on FROM suites`
	var args []any
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying suites: %w", err)
	}
	defer rows.Close()

	var suites []types.Suite
	for rows.Next() {
		var su types.Suite
		err := rows.Scan(&su.ID, &su.ProjectID, &su.Name, &su.Description, &su.URL,
			&su.IsMaster, &su.IsBaseline, &su.IsCompleted, &su.CompletedOn)
		if err != nil {
			return nil, fmt.Errorf("scanning suite: %w", err)
		}
		suites = append(suites, su)
	}
	return suites, rows.Err()
}

// SectionsForSuite returns the sections of one suite.
func (s *Store) SectionsForSuite(suiteID int) ([]types.Section, error) {
	rows, err := s.db.Query(`SELECT id, suite_id, name, description, parent_id,
        display_order, depth FROM sections WHERE suite_id = ? ORDER BY display_order`, suiteID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var sections []types.Section
	for rows.Next() {
		var sec types.Section
		err := rows.Scan(&sec.ID, &sec.SuiteID, &sec.Name, &sec.Description,
			&sec.ParentID, &sec.DisplayOrder, &sec.Depth)
		if err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}
