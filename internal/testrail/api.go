package testrail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"railbridge/pkg/types"
)

// decodeEach unmarshals every element of a raw collection into T.
func decodeEach[T any](endpoint string, items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s: decode element %d: %w", endpoint, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// captureCustom extracts the install-defined custom_* fields from a raw
// entity payload into a CustomFields bag.
func captureCustom(raw json.RawMessage) types.CustomFields {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return types.CustomFields{}
	}
	cf := types.CustomFields{}
	for k, v := range m {
		if strings.HasPrefix(k, "custom_") {
			cf[k] = v
		}
	}
	return cf
}

// GetProjects returns all projects visible to the account.
func (c *Client) GetProjects(ctx context.Context) ([]types.Project, error) {
	items, err := c.getCollection(ctx, "get_projects", "projects")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Project]("get_projects", items)
}

// GetProject returns the full detail for one project, including the
// membership blobs absent from the list payload.
func (c *Client) GetProject(ctx context.Context, projectID int) (*types.Project, error) {
	var p types.Project
	if err := c.getJSON(ctx, fmt.Sprintf("get_project/%d", projectID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUsers returns all user accounts.
func (c *Client) GetUsers(ctx context.Context) ([]types.User, error) {
	items, err := c.getCollection(ctx, "get_users", "users")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.User]("get_users", items)
}

// GetCaseTypes returns the case type reference table.
func (c *Client) GetCaseTypes(ctx context.Context) ([]types.CaseType, error) {
	items, err := c.getCollection(ctx, "get_case_types", "case_types")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.CaseType]("get_case_types", items)
}

// GetCaseFields returns the case custom-field definitions.
func (c *Client) GetCaseFields(ctx context.Context) ([]types.FieldDef, error) {
	items, err := c.getCollection(ctx, "get_case_fields", "case_fields")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.FieldDef]("get_case_fields", items)
}

// GetResultFields returns the result custom-field definitions.
func (c *Client) GetResultFields(ctx context.Context) ([]types.FieldDef, error) {
	items, err := c.getCollection(ctx, "get_result_fields", "result_fields")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.FieldDef]("get_result_fields", items)
}

// GetPriorities returns the priority reference table.
func (c *Client) GetPriorities(ctx context.Context) ([]types.Priority, error) {
	items, err := c.getCollection(ctx, "get_priorities", "priorities")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Priority]("get_priorities", items)
}

// GetStatuses returns the status reference table used for translation.
func (c *Client) GetStatuses(ctx context.Context) ([]types.Status, error) {
	items, err := c.getCollection(ctx, "get_statuses", "statuses")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Status]("get_statuses", items)
}

// GetTemplates returns the case templates of one project.
func (c *Client) GetTemplates(ctx context.Context, projectID int) ([]types.Template, error) {
	endpoint := fmt.Sprintf("get_templates/%d", projectID)
	items, err := c.getCollection(ctx, endpoint, "templates")
	if err != nil {
		return nil, err
	}
	templates, err := decodeEach[types.Template](endpoint, items)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		templates[i].ProjectID = projectID
	}
	return templates, nil
}

// GetSuites returns the suites of one project.
func (c *Client) GetSuites(ctx context.Context, projectID int) ([]types.Suite, error) {
	endpoint := fmt.Sprintf("get_suites/%d", projectID)
	items, err := c.getCollection(ctx, endpoint, "suites")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Suite](endpoint, items)
}

// GetSections returns the sections of one suite.
func (c *Client) GetSections(ctx context.Context, projectID, suiteID int) ([]types.Section, error) {
	endpoint := fmt.Sprintf("get_sections/%d&suite_id=%d", projectID, suiteID)
	items, err := c.getCollection(ctx, endpoint, "sections")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Section](endpoint, items)
}

// GetMilestones returns the milestones of one project.
func (c *Client) GetMilestones(ctx context.Context, projectID int) ([]types.Milestone, error) {
	endpoint := fmt.Sprintf("get_milestones/%d", projectID)
	items, err := c.getCollection(ctx, endpoint, "milestones")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Milestone](endpoint, items)
}

// GetCases returns the cases of one suite, custom-field bags included.
func (c *Client) GetCases(ctx context.Context, projectID, suiteID int) ([]types.Case, error) {
	endpoint := fmt.Sprintf("get_cases/%d&suite_id=%d", projectID, suiteID)
	items, err := c.getCollection(ctx, endpoint, "cases")
	if err != nil {
		return nil, err
	}
	cases := make([]types.Case, 0, len(items))
	for i, raw := range items {
		var cs types.Case
		if err := json.Unmarshal(raw, &cs); err != nil {
			return nil, fmt.Errorf("%s: decode element %d: %w", endpoint, i, err)
		}
		cs.CustomFields = captureCustom(raw)
		cases = append(cases, cs)
	}
	return cases, nil
}

// GetPlans returns the plan summaries of one project.
func (c *Client) GetPlans(ctx context.Context, projectID int) ([]types.Plan, error) {
	endpoint := fmt.Sprintf("get_plans/%d", projectID)
	items, err := c.getCollection(ctx, endpoint, "plans")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Plan](endpoint, items)
}

// GetPlan returns one plan's full detail, including the entries blob that the
// summary payload omits.
func (c *Client) GetPlan(ctx context.Context, planID int) (*types.Plan, error) {
	var p types.Plan
	if err := c.getJSON(ctx, fmt.Sprintf("get_plan/%d", planID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetRuns returns the runs of one project.
func (c *Client) GetRuns(ctx context.Context, projectID int) ([]types.Run, error) {
	endpoint := fmt.Sprintf("get_runs/%d", projectID)
	items, err := c.getCollection(ctx, endpoint, "runs")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Run](endpoint, items)
}

// GetTests returns the tests of one run, custom-field bags included.
func (c *Client) GetTests(ctx context.Context, runID int) ([]types.Test, error) {
	endpoint := fmt.Sprintf("get_tests/%d", runID)
	items, err := c.getCollection(ctx, endpoint, "tests")
	if err != nil {
		return nil, err
	}
	tests := make([]types.Test, 0, len(items))
	for i, raw := range items {
		var t types.Test
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("%s: decode element %d: %w", endpoint, i, err)
		}
		t.CustomFields = captureCustom(raw)
		tests = append(tests, t)
	}
	return tests, nil
}

// GetResults returns the result history of one test, newest first as
// delivered by the source, custom-field bags included.
func (c *Client) GetResults(ctx context.Context, testID int) ([]types.Result, error) {
	endpoint := fmt.Sprintf("get_results/%d", testID)
	items, err := c.getCollection(ctx, endpoint, "results")
	if err != nil {
		return nil, err
	}
	results := make([]types.Result, 0, len(items))
	for i, raw := range items {
		var r types.Result
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("%s: decode element %d: %w", endpoint, i, err)
		}
		r.CustomFields = captureCustom(raw)
		results = append(results, r)
	}
	return results, nil
}

// GetAttachmentsForCase returns the attachment list of one case.
func (c *Client) GetAttachmentsForCase(ctx context.Context, caseID int) ([]types.Attachment, error) {
	endpoint := fmt.Sprintf("get_attachments_for_case/%d", caseID)
	items, err := c.getCollection(ctx, endpoint, "attachments")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Attachment](endpoint, items)
}

// GetAttachmentsForResult returns the attachment list of one result.
func (c *Client) GetAttachmentsForResult(ctx context.Context, resultID int) ([]types.Attachment, error) {
	endpoint := fmt.Sprintf("get_attachments_for_result/%d", resultID)
	items, err := c.getCollection(ctx, endpoint, "attachments")
	if err != nil {
		return nil, err
	}
	return decodeEach[types.Attachment](endpoint, items)
}
