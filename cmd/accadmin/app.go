package main

import (
	"fmt"
	"time"

	"github.com/dmytro-yemelianov/accadmin/internal/acc"
	"github.com/dmytro-yemelianov/accadmin/internal/audit"
	"github.com/dmytro-yemelianov/accadmin/internal/bulk"
	"github.com/dmytro-yemelianov/accadmin/internal/config"
	"github.com/dmytro-yemelianov/accadmin/internal/logging"
)

// loadConfig reads the config file and initializes logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, nil
}

// buildClient constructs the ACC API client from validated credentials.
func buildClient(cfg *config.Config) (*acc.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens := acc.NewClientCredentialsTokenSource(
		cfg.Auth.ClientID,
		cfg.Auth.ClientSecret,
		cfg.API.AuthURL,
	)
	client := acc.NewClient(
		cfg.API.BaseURL,
		cfg.Auth.AccountID,
		tokens,
		acc.WithRequestTimeout(cfg.API.RequestTimeout),
	)
	return client, nil
}

// buildDriver wires client, state store, and driver together.
func buildDriver(cfg *config.Config) (*bulk.Driver, *bulk.Store, error) {
	client, err := buildClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := bulk.NewStore(cfg.State.Path)
	if err != nil {
		return nil, nil, err
	}

	return bulk.NewDriver(client, client, store), store, nil
}

// openState opens the state store without touching credentials; ops
// subcommands that never call the API use this.
func openState(cfg *config.Config) (*bulk.Store, error) {
	return bulk.NewStore(cfg.State.Path)
}

// executorConfig maps config defaults and command flags onto the executor.
func executorConfig(cfg *config.Config, concurrency, maxRetries int, dryRun bool) *bulk.ExecutorConfig {
	ec := bulk.DefaultExecutorConfig()
	if cfg.Bulk != nil {
		ec.Concurrency = cfg.Bulk.Concurrency
		ec.MaxRetries = cfg.Bulk.MaxRetries
		ec.RetryBaseDelay = cfg.Bulk.RetryBaseDelay
	}
	if concurrency > 0 {
		ec.Concurrency = concurrency
	}
	if maxRetries >= 0 {
		ec.MaxRetries = maxRetries
	}
	ec.DryRun = dryRun
	return ec
}

// auditRecord captures a finished run in the audit history. Best effort:
// audit failures are reported but never fail the command.
func auditRecord(cfg *config.Config, result *bulk.BulkOperationResult, opType bulk.OperationType, email, filter string, dryRun, resumed bool, started time.Time) {
	if cfg.Audit == nil || !cfg.Audit.Enabled || result.Total == 0 {
		return
	}

	store, err := audit.NewStore(cfg.Audit.Path)
	if err != nil {
		logging.Warn("Audit history unavailable", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	status := "completed"
	if result.Failed > 0 {
		status = "failed"
	}

	entry := &audit.Entry{
		OperationID:   result.OperationID,
		OperationType: string(opType),
		Status:        status,
		SubjectEmail:  email,
		Filter:        filter,
		Total:         result.Total,
		Completed:     result.Completed,
		Skipped:       result.Skipped,
		Failed:        result.Failed,
		DryRun:        dryRun,
		Resumed:       resumed,
		DurationMs:    result.Duration.Milliseconds(),
		StartedAt:     started.UTC(),
		FinishedAt:    time.Now().UTC(),
	}
	if err := store.Record(entry); err != nil {
		logging.Warn("Failed to record audit entry", "error", err)
	}
}
