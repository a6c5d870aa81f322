// Package schedule runs config-declared bulk operations on cron schedules.
// Each schedule entry names an operation, a subject, and a project filter;
// the scheduler fires them through a runner callback so it stays independent
// of client and driver wiring.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmytro-yemelianov/accadmin/internal/config"
	"github.com/dmytro-yemelianov/accadmin/internal/logging"
)

// RunFunc executes one scheduled operation when its cron expression fires.
type RunFunc func(ctx context.Context, entry *config.ScheduleEntry) error

// Scheduler manages the recurring bulk operations declared in configuration.
type Scheduler struct {
	entries []*config.ScheduleEntry
	run     RunFunc
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	ids     map[string]cron.EntryID // schedule name -> cron entry
}

// NewScheduler creates a scheduler over the given entries. Jobs are
// registered on Start, not here.
func NewScheduler(entries []*config.ScheduleEntry, run RunFunc) *Scheduler {
	return &Scheduler{
		entries: entries,
		run:     run,
		cron:    cron.New(),
		logger:  logging.WithComponent("schedule"),
		ids:     make(map[string]cron.EntryID),
	}
}

// ValidateSpec reports whether a cron expression is parseable. Config
// validation calls this so a bad expression fails at load time, not at
// Start.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Start registers every entry and begins the cron loop. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	for _, entry := range s.entries {
		entry := entry
		id, err := s.cron.AddFunc(entry.Cron, func() {
			s.fire(ctx, entry)
		})
		if err != nil {
			return fmt.Errorf("failed to register schedule %q: %w", entry.Name, err)
		}
		s.ids[entry.Name] = id
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started", slog.Int("schedules", len(s.entries)))
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the cron loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow fires one schedule entry immediately, outside its cron cadence.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, entry := range s.entries {
		if entry.Name == name {
			return s.run(ctx, entry)
		}
	}
	return fmt.Errorf("unknown schedule %q", name)
}

func (s *Scheduler) fire(ctx context.Context, entry *config.ScheduleEntry) {
	s.logger.Info("Running scheduled operation",
		slog.String("schedule", entry.Name),
		slog.String("operation", entry.Operation),
	)

	if err := s.run(ctx, entry); err != nil {
		s.logger.Error("Scheduled operation failed",
			slog.String("schedule", entry.Name),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("Scheduled operation finished", slog.String("schedule", entry.Name))
}

// EntryStatus describes one registered schedule.
type EntryStatus struct {
	Name      string
	Operation string
	Cron      string
	NextRun   time.Time
	LastRun   time.Time
}

// Status reports every registered schedule with its next and previous run
// times. Empty until Start.
func (s *Scheduler) Status() []EntryStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]EntryStatus, 0, len(s.entries))
	for _, entry := range s.entries {
		status := EntryStatus{
			Name:      entry.Name,
			Operation: entry.Operation,
			Cron:      entry.Cron,
		}
		if id, ok := s.ids[entry.Name]; ok && s.running {
			cronEntry := s.cron.Entry(id)
			status.NextRun = cronEntry.Next
			status.LastRun = cronEntry.Prev
		}
		statuses = append(statuses, status)
	}
	return statuses
}
