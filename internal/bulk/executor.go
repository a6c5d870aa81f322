package bulk

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmytro-yemelianov/accadmin/internal/logging"
)

// ItemProcessor applies the operation to one project and reports the
// outcome. It must be safe to call from multiple goroutines; per-item errors
// belong in the returned result, never in a panic.
type ItemProcessor func(ctx context.Context, projectID string) ItemResult

// ProgressFunc receives progress snapshots. Invocations are serialized by
// the executor; the callback must not block indefinitely.
type ProgressFunc func(ProgressUpdate)

// ExecutorConfig tunes one executor run.
type ExecutorConfig struct {
	// Concurrency bounds the number of in-flight processor calls.
	Concurrency int
	// MaxRetries is the attempt ceiling per item.
	MaxRetries int
	// RetryBaseDelay seeds the exponential backoff schedule.
	RetryBaseDelay time.Duration
	// ContinueOnError keeps the run going after item failures.
	ContinueOnError bool
	// DryRun reports every item as skipped without invoking the processor.
	DryRun bool
}

// DefaultExecutorConfig returns the standard run settings.
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		Concurrency:     10,
		MaxRetries:      5,
		RetryBaseDelay:  DefaultRetryBaseDelay,
		ContinueOnError: true,
	}
}

// Executor runs item processors over a work set with bounded concurrency,
// per-item retry with backoff, and durable per-item outcomes.
type Executor struct {
	store  *Store
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil store disables persistence; every
// other behavior is unchanged.
func NewExecutor(store *Store) *Executor {
	return &Executor{
		store:  store,
		logger: logging.WithComponent("bulk.executor"),
	}
}

// Run drives the processor over every item and returns the aggregate once
// all items are resolved. On context cancellation it returns what has been
// collected so far; finalized items stay finalized.
func (e *Executor) Run(ctx context.Context, operationID string, items []ProcessItem, processor ItemProcessor, onProgress ProgressFunc, cfg *ExecutorConfig) (*BulkOperationResult, error) {
	if cfg == nil {
		cfg = DefaultExecutorConfig()
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	start := time.Now()
	total := len(items)

	if cfg.DryRun {
		return e.dryRun(operationID, items, onProgress, start), nil
	}

	var completed, failed, skipped atomic.Int64

	snapshot := func(current string) ProgressUpdate {
		return ProgressUpdate{
			OperationID: operationID,
			Total:       total,
			Completed:   int(completed.Load()),
			Failed:      int(failed.Load()),
			Skipped:     int(skipped.Load()),
			CurrentItem: current,
		}
	}

	sem := make(chan struct{}, concurrency)
	finalized := make(chan ItemDetail)

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item ProcessItem) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			detail, ok := e.processWithRetry(ctx, item, processor, cfg)
			if !ok {
				return
			}

			switch detail.Result.Kind {
			case ResultSuccess:
				completed.Add(1)
			case ResultSkipped:
				skipped.Add(1)
			case ResultFailed:
				failed.Add(1)
			}

			select {
			case finalized <- detail:
			case <-ctx.Done():
			}
		}(item)
	}

	go func() {
		wg.Wait()
		close(finalized)
	}()

	// Single collection loop: serializes state writes and progress calls.
	details := make([]ItemDetail, 0, total)
	for detail := range finalized {
		if e.store != nil {
			if err := e.store.RecordItemCompleted(operationID, detail.ProjectID, detail.Result, detail.Attempts); err != nil {
				e.logger.Error("Failed to persist item result",
					slog.String("operation_id", operationID),
					slog.String("project_id", detail.ProjectID),
					slog.String("error", err.Error()),
				)
			}
		}
		details = append(details, detail)
		if onProgress != nil {
			onProgress(snapshot(detail.ProjectID))
		}
	}

	result := &BulkOperationResult{
		OperationID: operationID,
		Total:       total,
		Completed:   int(completed.Load()),
		Failed:      int(failed.Load()),
		Skipped:     int(skipped.Load()),
		Duration:    time.Since(start),
		Details:     details,
	}

	e.logger.Info("Executor run finished",
		slog.String("operation_id", operationID),
		slog.Int("total", result.Total),
		slog.Int("completed", result.Completed),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// processWithRetry runs one item to a terminal result. Returns ok=false when
// cancellation interrupted the item before it finalized.
func (e *Executor) processWithRetry(ctx context.Context, item ProcessItem, processor ItemProcessor, cfg *ExecutorConfig) (ItemDetail, bool) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return ItemDetail{}, false
		}
		attempts++

		result := processor(ctx, item.ProjectID)

		if result.Kind != ResultFailed {
			return ItemDetail{
				ProjectID:   item.ProjectID,
				ProjectName: item.ProjectName,
				Result:      result,
				Attempts:    attempts,
			}, true
		}

		if !result.Retryable || attempts >= cfg.MaxRetries {
			return ItemDetail{
				ProjectID:   item.ProjectID,
				ProjectName: item.ProjectName,
				Result:      result,
				Attempts:    attempts,
			}, true
		}

		delay := BackoffDelay(attempts-1, cfg.RetryBaseDelay)
		e.logger.Debug("Retrying item after backoff",
			slog.String("project_id", item.ProjectID),
			slog.Int("attempt", attempts),
			slog.Duration("delay", delay),
			slog.String("error", result.Error),
		)

		select {
		case <-ctx.Done():
			return ItemDetail{}, false
		case <-time.After(delay):
		}
	}
}

// dryRun reports every item as skipped without touching the processor or
// the state store.
func (e *Executor) dryRun(operationID string, items []ProcessItem, onProgress ProgressFunc, start time.Time) *BulkOperationResult {
	details := make([]ItemDetail, 0, len(items))
	for _, item := range items {
		details = append(details, ItemDetail{
			ProjectID:   item.ProjectID,
			ProjectName: item.ProjectName,
			Result:      SkippedResult("dry-run mode"),
			Attempts:    0,
		})
	}

	if onProgress != nil {
		onProgress(ProgressUpdate{
			OperationID: operationID,
			Total:       len(items),
			Skipped:     len(items),
		})
	}

	return &BulkOperationResult{
		OperationID: operationID,
		Total:       len(items),
		Skipped:     len(items),
		Duration:    time.Since(start),
		Details:     details,
	}
}
