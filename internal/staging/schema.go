// Package staging implements the SQLite staging store: a normalized mirror
// of the source entity types populated by the importer, plus the durable
// source-id to Jira-key mapping table consulted by the migrator.
package staging

// Schema DDL. Every entity table is keyed by the source system's integer id;
// Jira keys live only in jira_mappings, since they do not exist until a
// creation has been confirmed.
const (
	createProjects = `CREATE TABLE IF NOT EXISTS projects (
    id INTEGER NOT NULL PRIMARY KEY,
    name TEXT,
    announcement TEXT,
    show_announcement INTEGER,
    is_completed INTEGER,
    suite_mode INTEGER,
    default_role_id INTEGER,
    case_statuses_enabled INTEGER,
    url TEXT,
    users TEXT,
    groups TEXT
);`

	createUsers = `CREATE TABLE IF NOT EXISTS users (
    id INTEGER NOT NULL PRIMARY KEY,
    name TEXT,
    email TEXT,
    is_active INTEGER,
    role_id INTEGER,
    role TEXT
);`

	createCaseTypes = `CREATE TABLE IF NOT EXISTS case_types (
    id INTEGER NOT NULL PRIMARY KEY,
    name TEXT,
    is_default INTEGER
);`

	createCaseFields = `CREATE TABLE IF NOT EXISTS case_fields (
    id INTEGER NOT NULL PRIMARY KEY,
    type_id INTEGER,
    name TEXT,
    system_name TEXT,
    label TEXT,
    description TEXT,
    is_active INTEGER,
    configs TEXT
);`

	createPriorities = `CREATE TABLE IF NOT EXISTS priorities (
    id INTEGER NOT NULL PRIMARY KEY,
    name TEXT,
    short_name TEXT,
    is_default INTEGER,
    priority INTEGER
);`

	createResultFields = `CREATE TABLE IF NOT EXISTS result_fields (
    id INTEGER NOT NULL PRIMARY KEY,
    type_id INTEGER,
    name TEXT,
    system_name TEXT,
    label TEXT,
    description TEXT,
    is_active INTEGER,
    configs TEXT
);`

	createStatuses = `CREATE TABLE IF NOT EXISTS statuses (
    id INTEGER NOT NULL PRIMARY KEY,
    name TEXT,
    label TEXT,
    color_dark INTEGER,
    color_medium INTEGER,
    color_bright INTEGER,
    is_system INTEGER,
    is_untested INTEGER,
    is_final INTEGER
);`

	createTemplates = `CREATE TABLE IF NOT EXISTS templates (
    id INTEGER NOT NULL PRIMARY KEY,
    project_id INTEGER,
    name TEXT,
    is_default INTEGER
);`

	createSuites = `CREATE TABLE IF NOT EXISTS suites (
    id INTEGER NOT NULL PRIMARY KEY,
    project_id INTEGER,
    name TEXT,
    description TEXT,
    url TEXT,
    is_master INTEGER,
    is_baseline INTEGER,
    is_completed INTEGER,
    completed_on INTEGER
);`

	createSections = `CREATE TABLE IF NOT EXISTS sections (
    id INTEGER NOT NULL PRIMARY KEY,
    suite_id INTEGER,
    name TEXT,
    description TEXT,
    parent_id INTEGER,
    display_order INTEGER,
    depth INTEGER
);`

	createMilestones = `CREATE TABLE IF NOT EXISTS milestones (
    id INTEGER NOT NULL PRIMARY KEY,
    project_id INTEGER,
    name TEXT,
    description TEXT,
    start_on INTEGER,
    started_on INTEGER,
    is_started INTEGER,
    due_on INTEGER,
    is_completed INTEGER,
    completed_on INTEGER,
    parent_id INTEGER,
    url TEXT
);`

	createCases = `CREATE TABLE IF NOT EXISTS cases (
    id INTEGER NOT NULL PRIMARY KEY,
    title TEXT,
    section_id INTEGER,
    template_id INTEGER,
    type_id INTEGER,
    priority_id INTEGER,
    milestone_id INTEGER,
    refs TEXT,
    created_by INTEGER,
    created_on INTEGER,
    updated_by INTEGER,
    updated_on INTEGER,
    estimate TEXT,
    estimate_forecast TEXT,
    suite_id INTEGER,
    custom_fields TEXT
);`

	createPlans = `CREATE TABLE IF NOT EXISTS plans (
    id INTEGER NOT NULL PRIMARY KEY,
    project_id INTEGER,
    name TEXT,
    description TEXT,
    milestone_id INTEGER,
    assignedto_id INTEGER,
    is_completed INTEGER,
    completed_on INTEGER,
    created_by INTEGER,
    created_on INTEGER,
    url TEXT,
    entries TEXT
);`

	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    id INTEGER NOT NULL PRIMARY KEY,
    suite_id INTEGER,
    project_id INTEGER,
    plan_id INTEGER,
    name TEXT,
    description TEXT,
    milestone_id INTEGER,
    assignedto_id INTEGER,
    include_all INTEGER,
    is_completed INTEGER,
    completed_on INTEGER,
    config TEXT,
    config_ids TEXT,
    passed_count INTEGER,
    blocked_count INTEGER,
    untested_count INTEGER,
    retest_count INTEGER,
    failed_count INTEGER,
    custom_status1_count INTEGER,
    custom_status2_count INTEGER,
    custom_status3_count INTEGER,
    custom_status4_count INTEGER,
    custom_status5_count INTEGER,
    custom_status6_count INTEGER,
    custom_status7_count INTEGER,
    created_by INTEGER,
    created_on INTEGER,
    url TEXT
);`

	createTests = `CREATE TABLE IF NOT EXISTS tests (
    id INTEGER NOT NULL PRIMARY KEY,
    case_id INTEGER,
    run_id INTEGER,
    status_id INTEGER,
    assignedto_id INTEGER,
    priority_id INTEGER,
    type_id INTEGER,
    milestone_id INTEGER,
    refs TEXT,
    title TEXT,
    template_id INTEGER,
    estimate TEXT,
    estimate_forecast TEXT,
    custom_fields TEXT
);`

	createResults = `CREATE TABLE IF NOT EXISTS results (
    id INTEGER NOT NULL PRIMARY KEY,
    test_id INTEGER,
    status_id INTEGER,
    created_by INTEGER,
    created_on INTEGER,
    assignedto_id INTEGER,
    comment TEXT,
    version TEXT,
    elapsed TEXT,
    defects TEXT,
    custom_fields TEXT
);`

	createAttachments = `CREATE TABLE IF NOT EXISTS attachments (
    id INTEGER NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id INTEGER NOT NULL,
    filename TEXT,
    size INTEGER,
    created_on INTEGER,
    local_path TEXT,
    PRIMARY KEY (id, entity_type, entity_id)
);`

	createMappings = `CREATE TABLE IF NOT EXISTS jira_mappings (
    entity_type TEXT NOT NULL,
    entity_id INTEGER NOT NULL,
    jira_key TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_id)
);`
)

// Index DDL for the queries the migrator and report run.
const (
	idxSuitesProject  = `CREATE INDEX IF NOT EXISTS idx_suites_project ON suites(project_id);`
	idxSectionsSuite  = `CREATE INDEX IF NOT EXISTS idx_sections_suite ON sections(suite_id);`
	idxCasesSuite     = `CREATE INDEX IF NOT EXISTS idx_cases_suite ON cases(suite_id);`
	idxMilestonesProj = `CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id);`
	idxRunsProject    = `CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_id);`
	idxTestsRun       = `CREATE INDEX IF NOT EXISTS idx_tests_run ON tests(run_id);`
	idxResultsTest    = `CREATE INDEX IF NOT EXISTS idx_results_test ON results(test_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createProjects,
	createUsers,
	createCaseTypes,
	createCaseFields,
	createPriorities,
	createResultFields,
	createStatuses,
	createTemplates,
	createSuites,
	createSections,
	createMilestones,
	createCases,
	createPlans,
	createRuns,
	createTests,
	createResults,
	createAttachments,
	createMappings,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxSuitesProject,
	idxSectionsSuite,
	idxCasesSuite,
	idxMilestonesProj,
	idxRunsProject,
	idxTestsRun,
	idxResultsTest,
}

// entityTables lists the staged entity tables in import order, used by the
// count report.
var entityTables = []string{
	"projects", "users", "case_types", "case_fields", "priorities",
	"result_fields", "statuses", "templates", "suites", "sections",
	"milestones", "cases", "plans", "runs", "tests", "results", "attachments",
}
