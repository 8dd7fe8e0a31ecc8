package staging

import (
	"database/sql"
	"fmt"

	"railbridge/pkg/types"
)

// UpsertMilestones stores the milestones of one project in one transaction.
func (s *Store) UpsertMilestones(milestones []types.Milestone) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO milestones
            (id, project_id, name, description, start_on, started_on, is_started,
             due_on, is_completed, completed_on, parent_id, url)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, m := range milestones {
			_, err := tx.Exec(stmt, m.ID, m.ProjectID, m.Name, m.Description, m.StartOn,
				m.StartedOn, m.IsStarted, m.DueOn, m.IsCompleted, m.CompletedOn,
				m.ParentID, m.URL)
			if err != nil {
				return fmt.Errorf("upserting milestone %d: %w", m.ID, err)
			}
		}
		return nil
	})
}

// MilestonesForProject returns milestones ordered by due date ascending,
// scoped to one project unless projectID is 0.
func (s *Store) MilestonesForProject(projectID int) ([]types.Milestone, error) {
	query := `SELECT id, project_id, name, description, start_on, started_on,
        is_started, due_on, is_completed, completed_on, parent_id, url FROM milestones`
	var args []any
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY due_on`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying milestones: %w", err)
	}
	defer rows.Close()

	var milestones []types.Milestone
	for rows.Next() {
		var m types.Milestone
		err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.StartOn,
			&m.StartedOn, &m.IsStarted, &m.DueOn, &m.IsCompleted, &m.CompletedOn,
			&m.ParentID, &m.URL)
		if err != nil {
			return nil, fmt.Errorf("scanning milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// UpsertPlans stores the plans of one project in one transaction. The
// entries substructure stays opaque.
func (s *Store) UpsertPlans(plans []types.Plan) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO plans
            (id, project_id, name, description, milestone_id, assignedto_id,
             is_completed, completed_on, created_by, created_on, url, entries)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, p := range plans {
			_, err := tx.Exec(stmt, p.ID, p.ProjectID, p.Name, p.Description,
				p.MilestoneID, p.AssignedToID, p.IsCompleted, p.CompletedOn,
				p.CreatedBy, p.CreatedOn, p.URL, string(p.Entries))
			if err != nil {
				return fmt.Errorf("upserting plan %d: %w", p.ID, err)
			}
		}
		return nil
	})
}
