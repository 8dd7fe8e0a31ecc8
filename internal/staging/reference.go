package staging

import (
	"database/sql"
	"fmt"

	"railbridge/pkg/types"
)

// This file holds the upserts for projects, users and the reference tables.
// All upserts are INSERT OR REPLACE keyed by source id, so re-importing the
// same snapshot is convergent.

// UpsertProjects stores projects in one transaction.
func (s *Store) UpsertProjects(projects []types.Project) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO projects
            (id, name, announcement, show_announcement, is_completed, suite_mode,
             default_role_id, case_statuses_enabled, url, users, groups)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, p := range projects {
			_, err := tx.Exec(stmt, p.ID, p.Name, p.Announcement, p.ShowAnnouncement,
				p.IsCompleted, p.SuiteMode, p.DefaultRoleID, p.CaseStatusesEnabled,
				p.URL, string(p.Users), string(p.Groups))
			if err != nil {
				return fmt.Errorf("upserting project %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// UpsertUsers stores users in one transaction.
func (s *Store) UpsertUsers(users []types.User) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO users (id, name, email, is_active, role_id, role)
            VALUES (?, ?, ?, ?, ?, ?)`
		for _, u := range users {
			if _, err := tx.Exec(stmt, u.ID, u.Name, u.Email, u.IsActive, u.RoleID, u.Role); err != nil {
				return fmt.Errorf("upserting user %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// UpsertCaseTypes stores the case type reference table.
func (s *Store) UpsertCaseTypes(caseTypes []types.CaseType) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO case_types (id, name, is_default) VALUES (?, ?, ?)`
		for _, ct := range caseTypes {
			if _, err := tx.Exec(stmt, ct.ID, ct.Name, ct.IsDefault); err != nil {
				return fmt.Errorf("upserting case type %d: %w", ct.ID, err)
			}
		}
		return nil
	})
}

// UpsertCaseFields stores the case field definitions.
func (s *Store) UpsertCaseFields(fields []types.FieldDef) error {
	return s.upsertFieldDefs("case_fields", fields)
}

// UpsertResultFields stores the result field definitions.
func (s *Store) UpsertResultFields(fields []types.FieldDef) error {
	return s.upsertFieldDefs("result_fields", fields)
}

func (s *Store) upsertFieldDefs(table string, fields []types.FieldDef) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO ` + table + `
            (id, type_id, name, system_name, label, description, is_active, configs)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		for _, f := range fields {
			_, err := tx.Exec(stmt, f.ID, f.TypeID, f.Name, f.SystemName, f.Label,
				f.Description, f.IsActive, string(f.Configs))
			if err != nil {
				return fmt.Errorf("upserting %s %d: %w", table, f.ID, err)
			}
		}
		return nil
	})
}

// UpsertPriorities stores the priority reference table.
func (s *Store) UpsertPriorities(priorities []types.Priority) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO priorities (id, name, short_name, is_default, priority)
            VALUES (?, ?, ?, ?, ?)`
		for _, p := range priorities {
			if _, err := tx.Exec(stmt, p.ID, p.Name, p.ShortName, p.IsDefault, p.Priority); err != nil {
				return fmt.Errorf("upserting priority %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// UpsertStatuses stores the status reference table.
func (s *Store) UpsertStatuses(statuses []types.Status) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO statuses
            (id, name, label, color_dark, color_medium, color_bright, is_system, is_untested, is_final)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, st := range statuses {
			_, err := tx.Exec(stmt, st.ID, st.Name, st.Label, st.ColorDark, st.ColorMedium,
				st.ColorBright, st.IsSystem, st.IsUntested, st.IsFinal)
			if err != nil {
				return fmt.Errorf("upserting status %d: %w", st.ID, err)
			}
		}
		return nil
	})
}

// UpsertTemplates stores the templates of one project.
func (s *Store) UpsertTemplates(templates []types.Template) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO templates (id, project_id, name, is_default)
            VALUES (?, ?, ?, ?)`
		for _, t := range templates {
			if _, err := tx.Exec(stmt, t.ID, t.ProjectID, t.Name, t.IsDefault); err != nil {
				return fmt.Errorf("upserting template %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

// Statuses returns the full status reference table for translation.
func (s *Store) Statuses() ([]types.Status, error) {
	rows, err := s.db.Query(`SELECT id, name, label, color_dark, color_medium,
        color_bright, is_system, is_untested, is_final FROM statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	var statuses []types.Status
	for rows.Next() {
		var st types.Status
		err := rows.Scan(&st.ID, &st.Name, &st.Label, &st.ColorDark, &st.ColorMedium,
			&st.ColorBright, &st.IsSystem, &st.IsUntested, &st.IsFinal)
		if err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}
