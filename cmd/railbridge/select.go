package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"railbridge/internal/config"
	"railbridge/internal/jira"
)

var (
	flagTestRailProject int
	flagJiraProject     string
	flagCreateProject   bool
	flagJiraName        string
	flagJiraTemplate    string
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Choose the source and destination projects",
	Long: `Select pairs one TestRail project with one Jira project and saves the
choice for import and migrate. Projects can be given by flag or picked
interactively; --create-jira-project creates the destination first.`,
	RunE: runSelect,
}

func init() {
	selectCmd.Flags().IntVar(&flagTestRailProject, "testrail-project", 0, "TestRail project id")
	selectCmd.Flags().StringVar(&flagJiraProject, "jira-project", "", "Jira project key")
	selectCmd.Flags().BoolVar(&flagCreateProject, "create-jira-project", false, "create the Jira project instead of selecting an existing one")
	selectCmd.Flags().StringVar(&flagJiraName, "jira-name", "", "name for the created Jira project (defaults to the TestRail project name)")
	selectCmd.Flags().StringVar(&flagJiraTemplate, "jira-template", "com.pyxis.greenhopper.jira:gh-scrum-template", "template key for the created Jira project")
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	trClient, err := testrailClient()
	if err != nil {
		return err
	}
	jrClient, err := jiraClient()
	if err != nil {
		return err
	}
	if err := jrClient.Myself(ctx); err != nil {
		return fmt.Errorf("jira credentials rejected: %w", err)
	}

	sel := &config.Selection{}

	// Source project.
	projects, err := trClient.GetProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing testrail projects: %w", err)
	}
	if len(projects) == 0 {
		return fmt.Errorf("no testrail projects visible to this account")
	}

	projectID := flagTestRailProject
	if projectID == 0 {
		fmt.Println("TestRail projects:")
		for _, p := range projects {
			fmt.Printf("  %d: %s\n", p.ID, p.Name)
		}
		projectID, err = promptInt("Select project id: ")
		if err != nil {
			return err
		}
	}
	for _, p := range projects {
		if p.ID == projectID {
			sel.TestRailProjectID = p.ID
			sel.TestRailProjectName = p.Name
			break
		}
	}
	if sel.TestRailProjectID == 0 {
		return fmt.Errorf("testrail project %d not found", projectID)
	}

	// Destination project.
	if flagCreateProject {
		if err := createDestination(ctx, jrClient, sel); err != nil {
			return err
		}
	} else {
		if err := pickDestination(ctx, jrClient, sel); err != nil {
			return err
		}
	}

	if err := config.SaveSelection(cfg.SelectionPath, sel); err != nil {
		return err
	}
	fmt.Printf("Selected %q (id %d) -> %q (%s)\n",
		sel.TestRailProjectName, sel.TestRailProjectID, sel.JiraProjectName, sel.JiraProjectKey)
	return nil
}

// pickDestination selects an existing Jira project by flag or prompt.
func pickDestination(ctx context.Context, client *jira.Client, sel *config.Selection) error {
	if flagJiraProject != "" {
		p, err := client.GetProject(ctx, flagJiraProject)
		if err != nil {
			return fmt.Errorf("jira project %s: %w", flagJiraProject, err)
		}
		sel.JiraProjectKey = p.Key
		sel.JiraProjectName = p.Name
		return nil
	}

	projects, err := client.GetProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing jira projects: %w", err)
	}
	if len(projects) == 0 {
		return fmt.Errorf("no jira projects visible; use --create-jira-project")
	}
	fmt.Println("Jira projects:")
	for _, p := range projects {
		fmt.Printf("  %s: %s\n", p.Key, p.Name)
	}
	key, err := promptString("Select project key: ")
	if err != nil {
		return err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Key, key) {
			sel.JiraProjectKey = p.Key
			sel.JiraProjectName = p.Name
			return nil
		}
	}
	return fmt.Errorf("jira project %s not found", key)
}

// createDestination creates a fresh Jira project named after the source.
func createDestination(ctx context.Context, client *jira.Client, sel *config.Selection) error {
	if flagJiraProject == "" {
		return fmt.Errorf("--create-jira-project requires --jira-project for the new key")
	}
	name := flagJiraName
	if name == "" {
		name = sel.TestRailProjectName
	}
	description := fmt.Sprintf("Migrated from TestRail project %q", sel.TestRailProjectName)

	p, err := client.CreateProject(ctx, strings.ToUpper(flagJiraProject), name, description, flagJiraTemplate)
	if err != nil {
		return fmt.Errorf("creating jira project: %w", err)
	}
	sel.JiraProjectKey = p.Key
	sel.JiraProjectName = p.Name
	fmt.Printf("Created Jira project %s\n", p.Key)
	return nil
}

func promptString(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptInt(prompt string) (int, error) {
	s, err := promptString(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", s)
	}
	return n, nil
}
