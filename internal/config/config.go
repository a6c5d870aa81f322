// Package config loads and validates the accadmin configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmytro-yemelianov/accadmin/internal/logging"
)

// Config represents the main configuration
type Config struct {
	Version   string           `yaml:"version"`
	Auth      *AuthConfig      `yaml:"auth"`
	API       *APIConfig       `yaml:"api"`
	Bulk      *BulkConfig      `yaml:"bulk"`
	State     *StateConfig     `yaml:"state"`
	Audit     *AuditConfig     `yaml:"audit"`
	Logging   *logging.Config  `yaml:"logging"`
	Schedules []*ScheduleEntry `yaml:"schedules"`
}

// AuthConfig holds APS (Autodesk Platform Services) credentials
type AuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AccountID    string `yaml:"account_id"`
}

// APIConfig holds upstream endpoint settings
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	AuthURL        string        `yaml:"auth_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// BulkConfig holds defaults for bulk operation execution
type BulkConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
}

// StateConfig holds operation state persistence settings
type StateConfig struct {
	Path string `yaml:"path"`
}

// AuditConfig holds audit history settings
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScheduleEntry declares a recurring bulk operation
type ScheduleEntry struct {
	Name      string `yaml:"name"`
	Cron      string `yaml:"cron"`
	Operation string `yaml:"operation"` // add-user, remove-user, update-role, update-folder-permissions
	Email     string `yaml:"email"`
	RoleID    string `yaml:"role_id"`
	Filter    string `yaml:"filter"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Version: "1.0",
		Auth:    &AuthConfig{},
		API: &APIConfig{
			BaseURL:        "https://developer.api.autodesk.com",
			AuthURL:        "https://developer.api.autodesk.com/authentication/v2/token",
			RequestTimeout: 30 * time.Second,
		},
		Bulk: &BulkConfig{
			Concurrency:    10,
			MaxRetries:     5,
			RetryBaseDelay: time.Second,
		},
		State: &StateConfig{
			Path: filepath.Join(homeDir, ".accadmin", "operations"),
		},
		Audit: &AuditConfig{
			Enabled: true,
			Path:    filepath.Join(homeDir, ".accadmin", "data"),
		},
		Logging:   logging.DefaultConfig(),
		Schedules: []*ScheduleEntry{},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Return defaults if no config file
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Expand environment variables so credentials can stay out of the file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Expand paths
	if config.State != nil {
		config.State.Path = expandPath(config.State.Path)
	}
	if config.Audit != nil {
		config.Audit.Path = expandPath(config.Audit.Path)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration path
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".accadmin", "config.yaml")
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth == nil || c.Auth.ClientID == "" || c.Auth.ClientSecret == "" {
		return fmt.Errorf("auth.client_id and auth.client_secret are required")
	}
	if c.Auth.AccountID == "" {
		return fmt.Errorf("auth.account_id is required")
	}
	if c.Bulk != nil {
		if c.Bulk.Concurrency < 1 {
			return fmt.Errorf("bulk.concurrency must be at least 1, got %d", c.Bulk.Concurrency)
		}
		if c.Bulk.MaxRetries < 0 {
			return fmt.Errorf("bulk.max_retries must not be negative, got %d", c.Bulk.MaxRetries)
		}
	}
	for _, s := range c.Schedules {
		if s.Name == "" {
			return fmt.Errorf("schedule entries require a name")
		}
		if s.Cron == "" {
			return fmt.Errorf("schedule %q requires a cron expression", s.Name)
		}
		switch s.Operation {
		case "add-user", "remove-user", "update-role":
		default:
			return fmt.Errorf("schedule %q has unsupported operation %q", s.Name, s.Operation)
		}
	}
	return nil
}
