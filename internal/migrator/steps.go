package migrator

import (
	"fmt"
	"strings"
	"time"

	"railbridge/internal/jira"
	"railbridge/internal/staging"
	"railbridge/pkg/types"
)

// DeriveSteps builds the ordered step list for a Test issue from the case's
// custom fields. Structured steps win when present; otherwise the plain-text
// steps field is split on newlines, with the expected-result field attached
// to the final step only. Returns nil when the case has no step data.
func DeriveSteps(cf types.CustomFields) []jira.TestStep {
	if separated := cf.SeparatedSteps(); separated != nil {
		steps := make([]jira.TestStep, 0, len(separated))
		for i, s := range separated {
			steps = append(steps, jira.TestStep{
				Index:    i + 1,
				Action:   s.Content,
				Expected: s.Expected,
			})
		}
		return steps
	}

	plain := cf.String(types.FieldSteps)
	if plain == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(plain, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	steps := make([]jira.TestStep, 0, len(lines))
	for i, line := range lines {
		step := jira.TestStep{Index: i + 1, Action: line}
		if i == len(lines)-1 {
			step.Expected = cf.String(types.FieldExpected)
		}
		steps = append(steps, step)
	}
	return steps
}

// caseDescription renders the wiki-markup description of a Test issue,
// preserving the source id, section, preconditions and step text so nothing
// is lost even where the destination has no structured home for it.
func caseDescription(c *staging.CaseDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Imported from TestRail (ID: %d)*\n\n", c.ID)

	if c.SectionName != "" {
		fmt.Fprintf(&b, "*Section:* %s\n", c.SectionName)
	}
	if pre := c.CustomFields.String(types.FieldPreconds); pre != "" {
		fmt.Fprintf(&b, "\n*Preconditions:*\n%s\n", pre)
	}

	if separated := c.CustomFields.SeparatedSteps(); separated != nil {
		b.WriteString("\n*Steps:*\n")
		for _, s := range separated {
			fmt.Fprintf(&b, "- %s\n", s.Content)
			if s.Expected != "" {
				fmt.Fprintf(&b, "  *Expected:* %s\n", s.Expected)
			}
		}
	} else if plain := c.CustomFields.String(types.FieldSteps); plain != "" {
		fmt.Fprintf(&b, "\n*Steps:*\n%s\n", plain)
	}

	if expected := c.CustomFields.String(types.FieldExpected); expected != "" && c.CustomFields.SeparatedSteps() == nil {
		fmt.Fprintf(&b, "\n*Expected Results:*\n%s\n", expected)
	}

	b.WriteString("\n*Additional Information:*\n")
	if c.Refs != "" {
		fmt.Fprintf(&b, "- References: %s\n", c.Refs)
	}
	if c.Estimate != "" {
		fmt.Fprintf(&b, "- Estimate: %s\n", c.Estimate)
	}
	return b.String()
}

// suiteDescription renders the description of a Test Set issue.
func suiteDescription(s *types.Suite) string {
	desc := fmt.Sprintf("*Imported from TestRail Suite (ID: %d)*\n\n", s.ID)
	if s.Description != "" {
		desc += s.Description
	}
	return desc
}

// runDescription renders the description of a Test Execution issue, carrying
// the source run's outcome statistics.
func runDescription(r *types.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Imported from TestRail Run (ID: %d)*\n\n", r.ID)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}
	b.WriteString("*Statistics:*\n")
	fmt.Fprintf(&b, "- Passed: %d\n", r.PassedCount)
	fmt.Fprintf(&b, "- Failed: %d\n", r.FailedCount)
	fmt.Fprintf(&b, "- Blocked: %d\n", r.BlockedCount)
	fmt.Fprintf(&b, "- Untested: %d\n", r.UntestedCount)
	fmt.Fprintf(&b, "- Retest: %d\n", r.RetestCount)
	if r.CreatedOn != 0 {
		fmt.Fprintf(&b, "\n*Created:* %s\n", epochDateTime(r.CreatedOn))
	}
	return b.String()
}

func epochDate(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02")
}

func epochDateTime(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
