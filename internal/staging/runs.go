package staging

import (
	"database/sql"
	"fmt"

	"railbridge/pkg/types"
)

// TestResult is a test row joined with one of its results. Only rows with an
// actual result participate in the status-update stage.
type TestResult struct {
	TestID    int
	CaseID    int
	RunID     int
	ResultID  int
	StatusID  int
	Comment   string
	Defects   string
	CreatedOn int64
}

// UpsertRuns stores the runs of one project in one transaction.
func (s *Store) UpsertRuns(runs []types.Run) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO runs
            (id, suite_id, project_id, plan_id, name, description, milestone_id,
             assignedto_id, include_all, is_completed, completed_on, config, config_ids,
             passed_count, blocked_count, untested_count, retest_count, failed_count,
             custom_status1_count, custom_status2_count, custom_status3_count,
             custom_status4_count, custom_status5_count, custom_status6_count,
             custom_status7_count, created_by, created_on, url)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, r := range runs {
			_, err := tx.Exec(stmt, r.ID, r.SuiteID, r.ProjectID, r.PlanID, r.Name,
				r.Description, r.MilestoneID, r.AssignedToID, r.IncludeAll, r.IsCompleted,
				r.CompletedOn, r.Config, string(r.ConfigIDs),
				r.PassedCount, r.BlockedCount, r.UntestedCount, r.RetestCount, r.FailedCount,
				r.CustomStatus1Count, r.CustomStatus2Count, r.CustomStatus3Count,
				r.CustomStatus4Count, r.CustomStatus5Count, r.CustomStatus6Count,
				r.CustomStatus7Count, r.CreatedBy, r.CreatedOn, r.URL)
			if err != nil {
				return fmt.Errorf("upserting run %d: %w", r.ID, err)
			}
		}
		return nil
	})
}

// UpsertTests stores the tests of one run in one transaction.
func (s *Store) UpsertTests(tests []types.Test) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO tests
            (id, case_id, run_id, status_id, assignedto_id, priority_id, type_id,
             milestone_id, refs, title, template_id, estimate, estimate_forecast, custom_fields)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, t := range tests {
			_, err := tx.Exec(stmt, t.ID, t.CaseID, t.RunID, t.StatusID, t.AssignedToID,
				t.PriorityID, t.TypeID, t.MilestoneID, t.Refs, t.Title, t.TemplateID,
				t.Estimate, t.EstimateForecast, t.CustomFields.Encode())
			if err != nil {
				return fmt.Errorf("upserting test %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

// UpsertResults stores the results of one test in one transaction.
func (s *Store) UpsertResults(results []types.Result) error {
	return s.batch(func(tx *sql.Tx) error {
		stmt := `INSERT OR REPLACE INTO results
            (id, test_id, status_id, created_by, created_on, assignedto_id,
             comment, version, elapsed, defects, custom_fields)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, r := range results {
			_, err := tx.Exec(stmt, r.ID, r.TestID, r.StatusID, r.CreatedBy, r.CreatedOn,
				r.AssignedToID, r.Comment, r.Version, r.Elapsed, r.Defects,
				r.CustomFields.Encode())
			if err != nil {
				return fmt.Errorf("upserting result %d: %w", r.ID, err)
			}
		}
		return nil
	})
}

// RunsForProject returns runs ordered chronologically by creation time, so
// destination executions mirror source chronology. Scoped to one project
// unless projectID is 0.
func (s *Store) RunsForProject(projectID int) ([]types.Run, error) {
	query := `SELECT id, suite_id, project_id, plan_id, name, description, milestone_id,
        assignedto_id, include_all, is_completed, completed_on, config, config_ids,
        passed_count, blocked_count, untested_count, retest_count, failed_count,
        custom_status1_count, custom_status2_count, custom_status3_count,
        custom_status4_count, custom_status5_count, custom_status6_count,
        custom_status7_count, created_by, created_on, url FROM runs`
	var args []any
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_on`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		var r types.Run
		var configIDs string
		err := rows.Scan(&r.ID, &r.SuiteID, &r.ProjectID, &r.PlanID, &r.Name,
			&r.Description, &r.MilestoneID, &r.AssignedToID, &r.IncludeAll, &r.IsCompleted,
			&r.CompletedOn, &r.Config, &configIDs,
			&r.PassedCount, &r.BlockedCount, &r.UntestedCount, &r.RetestCount, &r.FailedCount,
			&r.CustomStatus1Count, &r.CustomStatus2Count, &r.CustomStatus3Count,
			&r.CustomStatus4Count, &r.CustomStatus5Count, &r.CustomStatus6Count,
			&r.CustomStatus7Count, &r.CreatedBy, &r.CreatedOn, &r.URL)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.ConfigIDs = []byte(configIDs)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// CaseIDsForRun returns the case ids instantiated as tests in one run.
func (s *Store) CaseIDsForRun(runID int) ([]int, error) {
	rows, err := s.db.Query(`SELECT case_id FROM tests WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run case ids: %w", err)
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

// Tests returns all staged tests (the attachment importer walks results per
// test). Scoped by run when runID is non-zero.
func (s *Store) Tests(runID int) ([]types.Test, error) {
	query := `SELECT id, case_id, run_id, status_id, assignedto_id, priority_id,
        type_id, milestone_id, refs, title, template_id, estimate, estimate_forecast,
        custom_fields FROM tests`
	var args []any
	if runID != 0 {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tests: %w", err)
	}
	defer rows.Close()

	var tests []types.Test
	for rows.Next() {
		var t types.Test
		var customFields string
		err := rows.Scan(&t.ID, &t.CaseID, &t.RunID, &t.StatusID, &t.AssignedToID,
			&t.PriorityID, &t.TypeID, &t.MilestoneID, &t.Refs, &t.Title, &t.TemplateID,
			&t.Estimate, &t.EstimateForecast, &customFields)
		if err != nil {
			return nil, fmt.Errorf("scanning test: %w", err)
		}
		t.CustomFields = types.ParseCustomFields(customFields)
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// TestResults returns every test-with-result pair ordered by run then result
// creation time. Tests without results are excluded.
func (s *Store) TestResults() ([]TestResult, error) {
	rows, err := s.db.Query(`
        SELECT t.id, t.case_id, t.run_id, r.id, r.status_id,
               COALESCE(r.comment, ''), COALESCE(r.defects, ''), r.created_on
        FROM tests t
        JOIN results r ON r.test_id = t.id
        ORDER BY t.run_id, r.created_on`)
	if err != nil {
		return nil, fmt.Errorf("querying test results: %w", err)
	}
	defer rows.Close()

	var out []TestResult
	for rows.Next() {
		var tr TestResult
		err := rows.Scan(&tr.TestID, &tr.CaseID, &tr.RunID, &tr.ResultID, &tr.StatusID,
			&tr.Comment, &tr.Defects, &tr.CreatedOn)
		if err != nil {
			return nil, fmt.Errorf("scanning test result: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// RunIDForResult resolves a result to its run through the owning test.
// Returns types.ErrNotFound when either hop is missing.
func (s *Store) RunIDForResult(resultID int) (int, error) {
	var runID int
	err := s.db.QueryRow(`
        SELECT t.run_id FROM results r
        JOIN tests t ON r.test_id = t.id
        WHERE r.id = ?`, resultID).Scan(&runID)
	if err == sql.ErrNoRows {
		return 0, types.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolving run for result %d: %w", resultID, err)
	}
	return runID, nil
}

// ResultIDsForTest returns the result ids staged under one test.
func (s *Store) ResultIDsForTest(testID int) ([]int, error) {
	rows, err := s.db.Query(`SELECT id FROM results WHERE test_id = ? ORDER BY id`, testID)
	if err != nil {
		return nil, fmt.Errorf("querying result ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning result id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
