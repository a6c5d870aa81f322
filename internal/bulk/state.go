package bulk

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmytro-yemelianov/accadmin/internal/logging"
)

// ItemRecord is the persisted outcome of one item.
type ItemRecord struct {
	Result      ItemResult `json:"result"`
	Attempts    int        `json:"attempts"`
	CompletedAt time.Time  `json:"completed_at"`
}

// OperationState is the durable record of one bulk operation. Parameters
// stores the resolved driver inputs, subject id included, so a resume never
// re-resolves them.
type OperationState struct {
	OperationID   string                `json:"operation_id"`
	OperationType OperationType         `json:"operation_type"`
	Status        OperationStatus       `json:"status"`
	Parameters    json.RawMessage       `json:"parameters"`
	ProjectIDs    []string              `json:"project_ids"`
	Results       map[string]ItemRecord `json:"results"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// PendingProjects returns the project ids a resume still has to process, in
// declaration order: ids with no recorded result, plus ids whose last result
// was a failure. Successes and skips stay settled.
func (s *OperationState) PendingProjects() []string {
	var pending []string
	for _, id := range s.ProjectIDs {
		record, done := s.Results[id]
		if !done || record.Result.Kind == ResultFailed {
			pending = append(pending, id)
		}
	}
	return pending
}

// OperationSummary is the compact listing form of an operation record.
type OperationSummary struct {
	OperationID   string
	OperationType OperationType
	Status        OperationStatus
	Total         int
	Done          int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store persists operation state, one JSON file per operation, named by
// operation id. Updates to the same operation are serialized by a per-id
// mutex; the store is single-process single-writer by contract.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logging.WithComponent("bulk.state"),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

// DefaultDir returns the platform-appropriate state directory.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".accadmin", "operations")
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// write serializes the full record and atomically replaces the file.
// updated_at is bumped before every durable write.
func (s *Store) write(state *OperationState) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal operation state: %w", err)
	}

	tmp := s.path(state.OperationID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write operation state: %w", err)
	}
	if err := os.Rename(tmp, s.path(state.OperationID)); err != nil {
		return fmt.Errorf("failed to replace operation state: %w", err)
	}
	return nil
}

// read loads and parses one record, failing loudly on malformed files.
func (s *Store) read(id string) (*OperationState, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, id)
		}
		return nil, fmt.Errorf("failed to read operation state: %w", err)
	}

	var state OperationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse operation state %s: %w", id, err)
	}
	if state.Results == nil {
		state.Results = make(map[string]ItemRecord)
	}
	return &state, nil
}

// Create allocates a fresh operation id and writes a pending record with
// empty results.
func (s *Store) Create(opType OperationType, params any, projectIDs []string) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal operation parameters: %w", err)
	}

	now := time.Now().UTC()
	state := &OperationState{
		OperationID:   uuid.NewString(),
		OperationType: opType,
		Status:        StatusPending,
		Parameters:    raw,
		ProjectIDs:    projectIDs,
		Results:       make(map[string]ItemRecord),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	lock := s.lockFor(state.OperationID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.write(state); err != nil {
		return "", err
	}

	s.logger.Debug("Created operation state",
		slog.String("operation_id", state.OperationID),
		slog.String("type", string(opType)),
		slog.Int("projects", len(projectIDs)),
	)
	return state.OperationID, nil
}

// Load returns the full record for an operation.
func (s *Store) Load(id string) (*OperationState, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return s.read(id)
}

// RecordItemCompleted inserts or overwrites the result for one project.
// Rejected once the operation is terminal.
func (s *Store) RecordItemCompleted(id, projectID string, result ItemResult, attempts int) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.read(id)
	if err != nil {
		return err
	}
	if state.Status.IsTerminal() {
		return fmt.Errorf("%w: operation %s is %s", ErrInvalidOperation, id, state.Status)
	}
	if !slices.Contains(state.ProjectIDs, projectID) {
		return fmt.Errorf("%w: project %s is not part of operation %s", ErrInvalidOperation, projectID, id)
	}

	state.Results[projectID] = ItemRecord{
		Result:      result,
		Attempts:    attempts,
		CompletedAt: time.Now().UTC(),
	}
	return s.write(state)
}

// UpdateStatus replaces the operation status. Transitions out of a terminal
// status are rejected.
func (s *Store) UpdateStatus(id string, status OperationStatus) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.read(id)
	if err != nil {
		return err
	}
	if state.Status.IsTerminal() {
		return fmt.Errorf("%w: operation %s is %s", ErrInvalidOperation, id, state.Status)
	}

	state.Status = status
	return s.write(state)
}

// Complete marks the operation with a terminal status chosen by the caller.
func (s *Store) Complete(id string, status OperationStatus) error {
	return s.UpdateStatus(id, status)
}

// Cancel marks the operation cancelled. Legal only from pending or
// in-progress.
func (s *Store) Cancel(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.read(id)
	if err != nil {
		return err
	}
	if state.Status != StatusPending && state.Status != StatusInProgress {
		return fmt.Errorf("%w: cannot cancel operation %s in status %s", ErrInvalidOperation, id, state.Status)
	}

	state.Status = StatusCancelled
	return s.write(state)
}

// Delete removes the record. Deleting a missing record is a no-op.
func (s *Store) Delete(id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete operation state: %w", err)
	}
	return nil
}

// List enumerates every record in the directory, newest update first.
// Malformed files are skipped so old or foreign files never break listing.
func (s *Store) List(statusFilter OperationStatus) ([]OperationSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}

	var summaries []OperationSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		state, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Debug("Skipping unreadable state file", slog.String("file", name))
			continue
		}
		if statusFilter != "" && state.Status != statusFilter {
			continue
		}

		summaries = append(summaries, OperationSummary{
			OperationID:   state.OperationID,
			OperationType: state.OperationType,
			Status:        state.Status,
			Total:         len(state.ProjectIDs),
			Done:          len(state.Results),
			CreatedAt:     state.CreatedAt,
			UpdatedAt:     state.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// GetResumable returns the most recently updated in-progress operation id,
// or false when none exists.
func (s *Store) GetResumable() (string, bool, error) {
	summaries, err := s.List(StatusInProgress)
	if err != nil {
		return "", false, err
	}
	if len(summaries) == 0 {
		return "", false, nil
	}
	return summaries[0].OperationID, true, nil
}
