package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Bulk.Concurrency != 10 {
		t.Errorf("default concurrency = %d, want 10", cfg.Bulk.Concurrency)
	}
	if cfg.API.BaseURL != "https://developer.api.autodesk.com" {
		t.Errorf("default base URL = %q", cfg.API.BaseURL)
	}
}

func TestLoad_ParsesFileAndExpandsEnv(t *testing.T) {
	t.Setenv("ACC_TEST_SECRET", "s3cret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
version: "1.0"
auth:
  client_id: my-client
  client_secret: ${ACC_TEST_SECRET}
  account_id: acct-1
bulk:
  concurrency: 3
  max_retries: 2
  retry_base_delay: 500ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Auth.ClientSecret != "s3cret" {
		t.Errorf("ClientSecret = %q, want env-expanded value", cfg.Auth.ClientSecret)
	}
	if cfg.Bulk.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Bulk.Concurrency)
	}
	if cfg.Bulk.RetryBaseDelay != 500*time.Millisecond {
		t.Errorf("RetryBaseDelay = %v, want 500ms", cfg.Bulk.RetryBaseDelay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing credentials",
			mutate:  func(c *Config) { c.Auth.ClientSecret = "" },
			wantErr: true,
		},
		{
			name:    "missing account",
			mutate:  func(c *Config) { c.Auth.AccountID = "" },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Bulk.Concurrency = 0 },
			wantErr: true,
		},
		{
			name: "schedule without cron",
			mutate: func(c *Config) {
				c.Schedules = []*ScheduleEntry{{Name: "nightly", Operation: "add-user"}}
			},
			wantErr: true,
		},
		{
			name: "schedule with bad operation",
			mutate: func(c *Config) {
				c.Schedules = []*ScheduleEntry{{Name: "nightly", Cron: "0 3 * * *", Operation: "destroy"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Auth = &AuthConfig{ClientID: "id", ClientSecret: "secret", AccountID: "acct"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Auth = &AuthConfig{ClientID: "id", ClientSecret: "secret", AccountID: "acct"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Auth.ClientID != "id" {
		t.Errorf("ClientID = %q, want id", loaded.Auth.ClientID)
	}
}
