// Package bulk implements the resumable bulk operation engine: filtered
// target selection, a concurrency-limited retrying executor, durable
// per-item state, and one driver per administrative mutation.
package bulk

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperationType identifies which administrative mutation a bulk operation
// applies.
type OperationType string

const (
	OpAddUser            OperationType = "add_user"
	OpRemoveUser         OperationType = "remove_user"
	OpUpdateRole         OperationType = "update_role"
	OpUpdateFolderRights OperationType = "update_folder_rights"
)

// OperationStatus is the lifecycle state of a bulk operation.
type OperationStatus string

const (
	StatusPending    OperationStatus = "pending"
	StatusInProgress OperationStatus = "in_progress"
	StatusCompleted  OperationStatus = "completed"
	StatusFailed     OperationStatus = "failed"
	StatusCancelled  OperationStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further mutation.
// A failed operation is not terminal: it may be resumed.
func (s OperationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ItemResultKind discriminates the ItemResult variants.
type ItemResultKind string

const (
	ResultSuccess ItemResultKind = "success"
	ResultSkipped ItemResultKind = "skipped"
	ResultFailed  ItemResultKind = "failed"
)

/// ItemResult is the outcome of processing one item. It is a tagged variant:
// exactly one of the three kinds, with Reason set for skips and
// Error/Retryable set for failures.
type ItemResult struct {
	Kind      ItemResultKind
	Reason    string
	Error     string
	Retryable bool
}

// SuccessResult returns a Success item result.
func SuccessResult() ItemResult {
	return ItemResult{Kind: ResultSuccess}
}

// SkippedResult returns a Skipped item result with the given reason.
func SkippedResult(reason string) ItemResult {
	return ItemResult{Kind: ResultSkipped, Reason: reason}
}

// FailedResult returns a Failed item result.
func FailedResult(errMsg string, retryable bool) ItemResult {
	return ItemResult{Kind: ResultFailed, Error: errMsg, Retryable: retryable}
}

// skippedPayload / failedPayload are the externally-tagged wire shapes.
type skippedPayload struct {
	Reason string `json:"reason"`
}

type failedPayload struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// MarshalJSON encodes the result as an externally-tagged variant:
// "Success", {"Skipped":{"reason":…}}, or {"Failed":{"error":…,"retryable":…}}.
func (r ItemResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultSuccess:
		return json.Marshal("Success")
	case ResultSkipped:
		return json.Marshal(map[string]skippedPayload{"Skipped": {Reason: r.Reason}})
	case ResultFailed:
		return json.Marshal(map[string]failedPayload{"Failed": {Error: r.Error, Retryable: r.Retryable}})
	default:
		return nil, fmt.Errorf("unknown item result kind %q", r.Kind)
	}
}

// UnmarshalJSON decodes the externally-tagged variant form.
func (r *ItemResult) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "Success" {
			return fmt.Errorf("unknown item result tag %q", tag)
		}
		*r = SuccessResult()
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("failed to parse item result: %w", err)
	}

	if raw, ok := tagged["Skipped"]; ok {
		var p skippedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("failed to parse skipped result: %w", err)
		}
		*r = SkippedResult(p.Reason)
		return nil
	}
	if raw, ok := tagged["Failed"]; ok {
		var p failedPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("failed to parse failed result: %w", err)
		}
		*r = FailedResult(p.Error, p.Retryable)
		return nil
	}

	return fmt.Errorf("unknown item result variant")
}

// ProcessItem is one unit of work: a project the operation applies to.
// ProjectName is display-only; ProjectID keys API calls and state.
type ProcessItem struct {
	ProjectID   string
	ProjectName string
}

// ItemDetail is the per-item outcome of an executor run. Attempts counts
// total tries (1 = succeeded first try; 0 = dry run).
type ItemDetail struct {
	ProjectID   string
	ProjectName string
	Result      ItemResult
	Attempts    int
}

// BulkOperationResult is the terminal aggregate of one executor run.
type BulkOperationResult struct {
	OperationID string
	Total       int
	Completed   int
	Failed      int
	Skipped     int
	Duration    time.Duration
	Details     []ItemDetail
}

// ProgressUpdate is a snapshot handed to the progress callback. The counter
// sum is monotonically non-decreasing across invocations; the snapshot is
// not linearized across counters.
type ProgressUpdate struct {
	OperationID string
	Total       int
	Completed   int
	Failed      int
	Skipped     int
	CurrentItem string
}

// Done returns how many items have reached a terminal result.
func (p ProgressUpdate) Done() int {
	return p.Completed + p.Failed + p.Skipped
}
