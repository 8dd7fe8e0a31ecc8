// Package testrail implements the read-only client for the TestRail API
// (index.php?/api/v2/...). All calls are authenticated GETs returning JSON,
// except attachment downloads which stream the binary to a local file.
package testrail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Client is a TestRail API client.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// New creates a Client for the given TestRail instance. The user and password
// are sent as basic auth on every request.
func New(baseURL, user, password string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("testrail: baseURL is required")
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

	return &Client{
		baseURL:    baseURL,
		user:       user,
		password:   password,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) { cfg.httpClient = c }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = l }
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

// apiURL builds the TestRail API URL for an endpoint like "get_projects" or
// "get_cases/5&suite_id=7".
func (c *Client) apiURL(endpoint string) string {
	return c.baseURL + "/index.php?/api/v2/" + endpoint
}

// getRaw executes an authenticated GET and returns the raw response body.
func (c *Client) getRaw(ctx context.Context, endpoint string) ([]byte, error) {
	url := c.apiURL(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/json")

	c.logger.DebugContext(ctx, "testrail request", "endpoint", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d: %s", endpoint, resp.StatusCode, truncate(string(body), 300))
	}
	return body, nil
}

// getJSON executes an authenticated GET and decodes the JSON response into dst.
func (c *Client) getJSON(ctx context.Context, endpoint string, dst any) error {
	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}

// collection decodes a response that is either a bare JSON array or an object
// wrapping the array under key (TestRail switched shapes across versions).
// Both shapes are accepted; anything else is an error.
func collection(endpoint string, body []byte, key string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%s: decode array: %w", endpoint, err)
		}
		return items, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("%s: decode object: %w", endpoint, err)
	}
	inner, ok := wrapper[key]
	if !ok {
		return nil, fmt.Errorf("%s: response has no %q field", endpoint, key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("%s: decode %q array: %w", endpoint, key, err)
	}
	return items, nil
}

// getCollection fetches endpoint and decodes the wrapped-or-bare array shape.
func (c *Client) getCollection(ctx context.Context, endpoint, key string) ([]json.RawMessage, error) {
	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return collection(endpoint, body, key)
}

// DownloadAttachment streams the attachment binary to destPath. The caller is
// responsible for verifying the resulting file.
func (c *Client) DownloadAttachment(ctx context.Context, attachmentID int, destPath string) error {
	endpoint := fmt.Sprintf("get_attachment/%d", attachmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(endpoint), nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: status %d: %s", endpoint, resp.StatusCode, truncate(string(body), 300))
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%s: create file: %w", endpoint, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("%s: write file: %w", endpoint, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: close file: %w", endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
