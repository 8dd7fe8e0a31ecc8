// Package config loads railbridge configuration from config.yaml and the
// environment, and persists the project selection between runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"railbridge/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyTestRailURL      = "testrail.url"
	cfgKeyTestRailUser     = "testrail.user"
	cfgKeyTestRailPassword = "testrail.password"
	cfgKeyJiraURL          = "jira.url"
	cfgKeyJiraUsername     = "jira.username"
	cfgKeyJiraPassword     = "jira.password"
	cfgKeyDBPath           = "db_path"
	cfgKeyAttachmentsDir   = "attachments_dir"
	cfgKeyMappingPath      = "mapping_path"
	cfgKeySelectionPath    = "selection_path"
	cfgKeyRateLimitMS      = "rate_limit_ms"
)

// Defaults for paths and rate limiting.
const (
	DefaultDBPath         = "railbridge.db"
	DefaultAttachmentsDir = "attachments"
	DefaultMappingPath    = "migration_mapping.json"
	DefaultSelectionPath  = "migration.json"
	DefaultRateLimitMS    = 500
)

// Credentials holds one service's connection settings.
type Credentials struct {
	URL      string
	User     string
	Password string
}

// Config is the explicit configuration value threaded into the clients,
// importer and migrator. It is never stored in package globals, so tests and
// repeated runs can use distinct configurations in one process.
type Config struct {
	TestRail Credentials
	Jira     Credentials

	DBPath         string
	AttachmentsDir string
	MappingPath    string
	SelectionPath  string
	RateLimit      time.Duration
}

// Load reads an optional .env file, then config.yaml from dir (the working
// directory when dir is empty), with RAILBRIDGE_* environment variables
// overriding file values. A missing config.yaml is not an error; credentials
// are validated later per command.
func Load(dir string) (*Config, error) {
	// .env is a convenience for credentials kept out of config.yaml.
	// Absence is fine.
	_ = godotenv.Load()

	if dir == "" {
		dir = "."
	}

	v := viper.New()
	v.SetDefault(cfgKeyDBPath, DefaultDBPath)
	v.SetDefault(cfgKeyAttachmentsDir, DefaultAttachmentsDir)
	v.SetDefault(cfgKeyMappingPath, DefaultMappingPath)
	v.SetDefault(cfgKeySelectionPath, DefaultSelectionPath)
	v.SetDefault(cfgKeyRateLimitMS, DefaultRateLimitMS)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix("railbridge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		TestRail: Credentials{
			URL:      v.GetString(cfgKeyTestRailURL),
			User:     v.GetString(cfgKeyTestRailUser),
			Password: v.GetString(cfgKeyTestRailPassword),
		},
		Jira: Credentials{
			URL:      v.GetString(cfgKeyJiraURL),
			User:     v.GetString(cfgKeyJiraUsername),
			Password: v.GetString(cfgKeyJiraPassword),
		},
		DBPath:         v.GetString(cfgKeyDBPath),
		AttachmentsDir: v.GetString(cfgKeyAttachmentsDir),
		MappingPath:    v.GetString(cfgKeyMappingPath),
		SelectionPath:  v.GetString(cfgKeySelectionPath),
		RateLimit:      time.Duration(v.GetInt(cfgKeyRateLimitMS)) * time.Millisecond,
	}

	// Paths from config.yaml are resolved relative to the config directory.
	cfg.DBPath = resolvePath(dir, cfg.DBPath)
	cfg.AttachmentsDir = resolvePath(dir, cfg.AttachmentsDir)
	cfg.MappingPath = resolvePath(dir, cfg.MappingPath)
	cfg.SelectionPath = resolvePath(dir, cfg.SelectionPath)

	return cfg, nil
}

// resolvePath joins rel onto dir unless rel is already absolute.
func resolvePath(dir, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(dir, rel)
}

// ValidateSource checks the TestRail credentials needed by select and import.
func (c *Config) ValidateSource() error {
	if c.TestRail.URL == "" || c.TestRail.User == "" || c.TestRail.Password == "" {
		return fmt.Errorf("testrail url, user and password are required: %w", types.ErrMissingCredentials)
	}
	return nil
}

// ValidateDestination checks the Jira credentials needed by select and migrate.
func (c *Config) ValidateDestination() error {
	if c.Jira.URL == "" || c.Jira.User == "" || c.Jira.Password == "" {
		return fmt.Errorf("jira url, username and password are required: %w", types.ErrMissingCredentials)
	}
	return nil
}

// EnsureAttachmentsDir creates the attachment cache directory if needed.
func (c *Config) EnsureAttachmentsDir() error {
	if err := os.MkdirAll(c.AttachmentsDir, 0o755); err != nil {
		return fmt.Errorf("create attachments dir: %w", err)
	}
	return nil
}
