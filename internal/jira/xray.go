package jira

import (
	"context"
	"fmt"
	"net/http"
)

// Destination status vocabulary for test runs inside an execution.
const (
	StatusPass    = "PASS"
	StatusFail    = "FAIL"
	StatusBlocked = "BLOCKED"
	StatusTodo    = "TODO"
)

// TestStep is one ordered step of a Test issue. Index is 1-based.
type TestStep struct {
	Index    int
	Action   string
	Data     string
	Expected string
}

// ExecutionTest is one test inside a test execution; ID is the test-run id
// used by the status-update endpoint.
type ExecutionTest struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// xrayURL builds a /rest/raven/{version} URL.
func (c *Client) xrayURL(apiVersion, path string) string {
	return c.baseURL + "/rest/raven/" + apiVersion + "/" + path
}

// AddTestSteps uploads the ordered step list of a Test issue. The extension
// API takes one POST per step; steps are sent in index order.
func (c *Client) AddTestSteps(ctx context.Context, testKey string, steps []TestStep) error {
	for _, step := range steps {
		payload := map[string]any{
			"index": step.Index,
			"fields": map[string]string{
				"Action":          step.Action,
				"Data":            step.Data,
				"Expected Result": step.Expected,
			},
		}
		url := c.xrayURL("2.0", "api/test/"+testKey+"/steps")
		op := fmt.Sprintf("add step %d to %s", step.Index, testKey)
		if err := c.doJSON(ctx, http.MethodPost, url, op, payload, nil); err != nil {
			return err
		}
	}
	return nil
}

// AddTestsToSet adds the given Test keys to a Test Set issue.
func (c *Client) AddTestsToSet(ctx context.Context, setKey string, testKeys []string) error {
	if len(testKeys) == 0 {
		return nil
	}
	payload := map[string]any{"add": testKeys}
	url := c.xrayURL("1.0", "api/testset/"+setKey+"/test")
	return c.doJSON(ctx, http.MethodPost, url, "add tests to set", payload, nil)
}

// AddTestsToExecution adds the given Test keys to a Test Execution issue.
func (c *Client) AddTestsToExecution(ctx context.Context, execKey string, testKeys []string) error {
	if len(testKeys) == 0 {
		return nil
	}
	payload := map[string]any{"add": testKeys}
	url := c.xrayURL("1.0", "api/testexec/"+execKey+"/test")
	return c.doJSON(ctx, http.MethodPost, url, "add tests to execution", payload, nil)
}

// GetTestsInExecution lists the tests of an execution with their test-run ids.
func (c *Client) GetTestsInExecution(ctx context.Context, execKey string) ([]ExecutionTest, error) {
	var tests []ExecutionTest
	url := c.xrayURL("1.0", "api/testexec/"+execKey+"/test")
	if err := c.doJSON(ctx, http.MethodGet, url, "get tests in execution", nil, &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

// UpdateTestRunStatus sets the status of one test inside an execution,
// resolving the test-run id first, then updating it with the optional comment
// and defect references.
func (c *Client) UpdateTestRunStatus(ctx context.Context, execKey, testKey, status, comment string, defects []string) error {
	tests, err := c.GetTestsInExecution(ctx, execKey)
	if err != nil {
		return err
	}

	runID := 0
	for _, t := range tests {
		if t.Key == testKey {
			runID = t.ID
			break
		}
	}
	if runID == 0 {
		return fmt.Errorf("update test run: test %s not found in execution %s", testKey, execKey)
	}

	payload := map[string]any{"status": status}
	if comment != "" {
		payload["comment"] = comment
	}
	if len(defects) > 0 {
		payload["defects"] = defects
	}
	url := c.xrayURL("2.0", fmt.Sprintf("api/testrun/%d", runID))
	return c.doJSON(ctx, http.MethodPut, url, "update test run", payload, nil)
}
