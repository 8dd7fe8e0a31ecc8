// Package jira implements the client for the Jira REST API and the Xray
// test-management extension. The same credentials drive both namespaces;
// personal access tokens are detected by shape and sent as bearer tokens,
// anything else as basic auth.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Xray issue type names. Installs can rename these; they are the stock
// Server/Data Center defaults.
const (
	IssueTypeTest          = "Test"
	IssueTypeTestSet       = "Test Set"
	IssueTypeTestExecution = "Test Execution"
	IssueTypePrecondition  = "Precondition"
)

// tokenPattern matches the base64 alphabet of a personal access token.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// IsToken reports whether secret looks like a personal access token rather
// than a password: a long base64-alphabet string, or anything over 40 chars.
func IsToken(secret string) bool {
	return (len(secret) > 30 && tokenPattern.MatchString(secret)) || len(secret) > 40
}

// Client is a Jira/Xray API client.
type Client struct {
	baseURL     string
	username    string
	password    string
	bearer      bool
	httpClient  *http.Client
	logger      *slog.Logger
	minInterval time.Duration
}

// Option configures the Client during construction.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient  *http.Client
	logger      *slog.Logger
	timeout     time.Duration
	minInterval time.Duration
}

// New creates a Client for the given Jira instance. The authentication mode
// is chosen from the password's shape; see IsToken.
func New(baseURL, username, password string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("jira: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		baseURL:     baseURL,
		username:    username,
		password:    password,
		bearer:      IsToken(password),
		httpClient:  httpClient,
		logger:      logger,
		minInterval: cfg.minInterval,
	}
	c.logger.Debug("jira auth mode", "bearer", c.bearer)
	return c, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *clientConfig) { cfg.httpClient = hc }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = l }
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

// WithMinInterval sets the minimum delay inserted after every successful
// call, to stay under the destination's rate limit.
func WithMinInterval(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.minInterval = d }
}

// authorize sets the authentication on a request per the detected mode.
func (c *Client) authorize(req *http.Request) {
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.password)
	} else {
		req.SetBasicAuth(c.username, c.password)
	}
}

// throttle sleeps the configured minimum inter-request interval. Called after
// every successful call; failures return immediately.
func (c *Client) throttle() {
	if c.minInterval > 0 {
		time.Sleep(c.minInterval)
	}
}

// doJSON executes a request with an optional JSON body and decodes the JSON
// response into dst (when dst is non-nil and the response has a body).
func (c *Client) doJSON(ctx context.Context, method, url, operation string, payload, dst any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "jira request", "operation", operation, "method", method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d: %s", operation, resp.StatusCode, truncate(string(respBody), 300))
	}

	if dst != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, dst); err != nil {
			return fmt.Errorf("%s: decode response: %w", operation, err)
		}
	}

	c.throttle()
	return nil
}

// coreURL builds a /rest/api/2 URL.
func (c *Client) coreURL(path string) string {
	return c.baseURL + "/rest/api/2/" + path
}

// Project is a Jira project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Issue is the creation response for a Jira issue.
type Issue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// Version is a Jira project version (release).
type Version struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Released    bool   `json:"released"`
	StartDate   string `json:"startDate,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// Myself verifies the credentials by fetching the calling user.
func (c *Client) Myself(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, c.coreURL("myself"), "myself", nil, nil)
}

// GetProject returns one project by key.
func (c *Client) GetProject(ctx context.Context, key string) (*Project, error) {
	var p Project
	if err := c.doJSON(ctx, http.MethodGet, c.coreURL("project/"+key), "get project", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProjects returns all projects visible to the account.
func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.doJSON(ctx, http.MethodGet, c.coreURL("project"), "get projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project from a template. Lead defaults to the
// calling user when empty.
func (c *Client) CreateProject(ctx context.Context, key, name, description, templateKey string) (*Project, error) {
	payload := map[string]any{
		"key":                key,
		"name":               name,
		"projectTypeKey":     "software",
		"projectTemplateKey": templateKey,
		"lead":               c.username,
	}
	if description != "" {
		payload["description"] = description
	}
	var p Project
	if err := c.doJSON(ctx, http.MethodPost, c.coreURL("project"), "create project", payload, &p); err != nil {
		return nil, err
	}
	if p.Key == "" {
		p.Key = key
	}
	if p.Name == "" {
		p.Name = name
	}
	return &p, nil
}

// CreateIssue creates an issue and returns its key.
func (c *Client) CreateIssue(ctx context.Context, projectKey, summary, description, issueType string) (string, error) {
	payload := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": projectKey},
			"summary":     summary,
			"description": description,
			"issuetype":   map[string]string{"name": issueType},
		},
	}
	var issue Issue
	if err := c.doJSON(ctx, http.MethodPost, c.coreURL("issue"), "create issue", payload, &issue); err != nil {
		return "", err
	}
	if issue.Key == "" {
		return "", fmt.Errorf("create issue: response has no key")
	}
	return issue.Key, nil
}

// GetIssue returns one issue's raw field map.
func (c *Client) GetIssue(ctx context.Context, key string) (map[string]any, error) {
	var issue map[string]any
	if err := c.doJSON(ctx, http.MethodGet, c.coreURL("issue/"+key), "get issue", nil, &issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// SearchIssues runs a JQL query and returns the matching issues.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	payload := map[string]any{
		"jql":        jql,
		"maxResults": maxResults,
		"fields":     []string{"key"},
	}
	var result struct {
		Issues []Issue `json:"issues"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.coreURL("search"), "search issues", payload, &result); err != nil {
		return nil, err
	}
	return result.Issues, nil
}

// AddComment appends a comment to an issue.
func (c *Client) AddComment(ctx context.Context, issueKey, comment string) error {
	payload := map[string]string{"body": comment}
	return c.doJSON(ctx, http.MethodPost, c.coreURL("issue/"+issueKey+"/comment"), "add comment", payload, nil)
}

// CreateLink links two issues with the named link type.
func (c *Client) CreateLink(ctx context.Context, inwardKey, outwardKey, linkType string) error {
	payload := map[string]any{
		"type":         map[string]string{"name": linkType},
		"inwardIssue":  map[string]string{"key": inwardKey},
		"outwardIssue": map[string]string{"key": outwardKey},
	}
	return c.doJSON(ctx, http.MethodPost, c.coreURL("issueLink"), "create link", payload, nil)
}

// GetVersions returns the versions of a project.
func (c *Client) GetVersions(ctx context.Context, projectKey string) ([]Version, error) {
	var versions []Version
	op := "get versions"
	if err := c.doJSON(ctx, http.MethodGet, c.coreURL("project/"+projectKey+"/versions"), op, nil, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// CreateVersion creates a project version. Name is required; the date fields
// are optional yyyy-mm-dd strings.
func (c *Client) CreateVersion(ctx context.Context, projectKey string, v Version, description string) (*Version, error) {
	payload := map[string]any{
		"name":     v.Name,
		"project":  projectKey,
		"released": v.Released,
	}
	if description != "" {
		payload["description"] = description
	}
	if v.StartDate != "" {
		payload["startDate"] = v.StartDate
	}
	if v.ReleaseDate != "" {
		payload["releaseDate"] = v.ReleaseDate
	}
	var created Version
	if err := c.doJSON(ctx, http.MethodPost, c.coreURL("version"), "create version", payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// AddAttachment uploads a local file to an issue as a multipart attachment.
func (c *Client) AddAttachment(ctx context.Context, issueKey, filePath string) error {
	op := "add attachment"

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s: open file: %w", op, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("%s: copy file: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%s: close writer: %w", op, err)
	}

	url := c.coreURL("issue/" + issueKey + "/attachments")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	// Jira rejects multipart posts without this header.
	req.Header.Set("X-Atlassian-Token", "no-check")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, truncate(string(body), 300))
	}

	c.throttle()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
