// Package audit keeps a durable history of finished bulk operations in
// SQLite, one row per operation. The per-item JSON state files are pruned
// after completion by the operator; the audit log is what remains for
// account-level reporting.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides persistent audit history using SQLite. Migrations run
// automatically on initialization.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a Store with a SQLite database under dataPath, creating
// the directory if it does not exist.
func NewStore(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "accadmin.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dataPath,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate audit database: %w", err)
	}

	return store, nil
}

// migrate creates necessary tables
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS operations (
			operation_id TEXT PRIMARY KEY,
			operation_type TEXT NOT NULL,
			status TEXT NOT NULL,
			subject_email TEXT NOT NULL,
			filter TEXT,
			total INTEGER DEFAULT 0,
			completed INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0,
			dry_run BOOLEAN DEFAULT FALSE,
			duration_ms INTEGER DEFAULT 0,
			started_at DATETIME,
			finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_type ON operations(operation_type)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_operations_finished ON operations(finished_at)`,
		`ALTER TABLE operations ADD COLUMN resumed BOOLEAN DEFAULT FALSE`,
	}

	for _, migration := range migrations {
		_, err := s.db.Exec(migration)
		if err != nil {
			// SQLite reports "duplicate column name" when an ALTER TABLE
			// migration has already been applied
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Entry is one finished bulk operation.
type Entry struct {
	OperationID   string
	OperationType string
	Status        string
	SubjectEmail  string
	Filter        string
	Total         int
	Completed     int
	Skipped       int
	Failed        int
	DryRun        bool
	Resumed       bool
	DurationMs    int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Record inserts an entry, or replaces the existing row when the same
// operation finishes again after a resume.
func (s *Store) Record(entry *Entry) error {
	finishedAt := entry.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO operations
			(operation_id, operation_type, status, subject_email, filter,
			 total, completed, skipped, failed, dry_run, resumed,
			 duration_ms, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.OperationID, entry.OperationType, entry.Status, entry.SubjectEmail, entry.Filter,
		entry.Total, entry.Completed, entry.Skipped, entry.Failed, entry.DryRun, entry.Resumed,
		entry.DurationMs, entry.StartedAt, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// Get retrieves one entry by operation id. Returns sql.ErrNoRows when the
// operation was never recorded.
func (s *Store) Get(operationID string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT operation_id, operation_type, status, subject_email, COALESCE(filter, ''),
			total, completed, skipped, failed, dry_run, COALESCE(resumed, 0),
			duration_ms, started_at, finished_at
		FROM operations WHERE operation_id = ?
	`, operationID)
	return scanEntry(row)
}

// List returns the most recently finished entries, newest first. A limit of
// zero or less means no limit.
func (s *Store) List(limit int) ([]*Entry, error) {
	query := `
		SELECT operation_id, operation_type, status, subject_email, COALESCE(filter, ''),
			total, completed, skipped, failed, dry_run, COALESCE(resumed, 0),
			duration_ms, started_at, finished_at
		FROM operations ORDER BY finished_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListByType returns the most recent entries of one operation type.
func (s *Store) ListByType(operationType string, limit int) ([]*Entry, error) {
	query := `
		SELECT operation_id, operation_type, status, subject_email, COALESCE(filter, ''),
			total, completed, skipped, failed, dry_run, COALESCE(resumed, 0),
			duration_ms, started_at, finished_at
		FROM operations WHERE operation_type = ? ORDER BY finished_at DESC`
	args := []any{operationType}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Summary aggregates item counts across all recorded operations.
type Summary struct {
	Operations int
	Completed  int
	Skipped    int
	Failed     int
}

// Summarize totals item outcomes over the whole history.
func (s *Store) Summarize() (*Summary, error) {
	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(completed), 0), COALESCE(SUM(skipped), 0), COALESCE(SUM(failed), 0)
		FROM operations
	`)

	var summary Summary
	if err := row.Scan(&summary.Operations, &summary.Completed, &summary.Skipped, &summary.Failed); err != nil {
		return nil, fmt.Errorf("failed to summarize audit history: %w", err)
	}
	return &summary, nil
}

// Prune deletes entries that finished before the cutoff and returns the
// number removed.
func (s *Store) Prune(before time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM operations WHERE finished_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit history: %w", err)
	}
	return result.RowsAffected()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*Entry, error) {
	var entry Entry
	var startedAt, finishedAt sql.NullTime
	err := row.Scan(&entry.OperationID, &entry.OperationType, &entry.Status, &entry.SubjectEmail, &entry.Filter,
		&entry.Total, &entry.Completed, &entry.Skipped, &entry.Failed, &entry.DryRun, &entry.Resumed,
		&entry.DurationMs, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		entry.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		entry.FinishedAt = finishedAt.Time
	}
	return &entry, nil
}
