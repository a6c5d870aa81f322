package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dmytro-yemelianov/accadmin/internal/config"
)

func testEntries() []*config.ScheduleEntry {
	return []*config.ScheduleEntry{
		{
			Name:      "nightly-cleanup",
			Cron:      "0 2 * * *",
			Operation: "remove-user",
			Email:     "contractor@example.com",
			Filter:    "status:archived",
		},
		{
			Name:      "weekly-grant",
			Cron:      "0 8 * * 1",
			Operation: "add-user",
			Email:     "auditor@example.com",
			RoleID:    "viewer",
		},
	}
}

func TestValidateSpec(t *testing.T) {
	if err := ValidateSpec("0 2 * * *"); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
	if err := ValidateSpec("@daily"); err != nil {
		t.Errorf("descriptor spec rejected: %v", err)
	}
	if err := ValidateSpec("not a cron line"); err == nil {
		t.Error("invalid spec accepted")
	}
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(testEntries(), func(ctx context.Context, e *config.ScheduleEntry) error {
		return nil
	})

	if s.IsRunning() {
		t.Fatal("running before Start")
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("not running after Start")
	}

	// Second Start is a no-op
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start error: %v", err)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("still running after Stop")
	}
	// Second Stop is a no-op
	s.Stop()
}

func TestStartRejectsBadCron(t *testing.T) {
	entries := []*config.ScheduleEntry{
		{Name: "broken", Cron: "99 99 * * *", Operation: "add-user", Email: "x@example.com"},
	}
	s := NewScheduler(entries, func(ctx context.Context, e *config.ScheduleEntry) error {
		return nil
	})

	if err := s.Start(context.Background()); err == nil {
		s.Stop()
		t.Fatal("Start accepted an invalid cron expression")
	}
}

func TestRunNow(t *testing.T) {
	var fired atomic.Int64
	var gotEntry *config.ScheduleEntry
	s := NewScheduler(testEntries(), func(ctx context.Context, e *config.ScheduleEntry) error {
		fired.Add(1)
		gotEntry = e
		return nil
	})

	if err := s.RunNow(context.Background(), "weekly-grant"); err != nil {
		t.Fatalf("RunNow error: %v", err)
	}
	if fired.Load() != 1 {
		t.Errorf("runner fired %d times, want 1", fired.Load())
	}
	if gotEntry == nil || gotEntry.Name != "weekly-grant" {
		t.Errorf("runner got entry %+v", gotEntry)
	}

	if err := s.RunNow(context.Background(), "no-such-schedule"); err == nil {
		t.Error("RunNow accepted unknown schedule name")
	}
}

func TestRunNowPropagatesError(t *testing.T) {
	want := errors.New("upstream down")
	s := NewScheduler(testEntries(), func(ctx context.Context, e *config.ScheduleEntry) error {
		return want
	})

	if err := s.RunNow(context.Background(), "nightly-cleanup"); !errors.Is(err, want) {
		t.Errorf("RunNow error = %v, want %v", err, want)
	}
}

func TestStatus(t *testing.T) {
	s := NewScheduler(testEntries(), func(ctx context.Context, e *config.ScheduleEntry) error {
		return nil
	})

	// Before Start: entries listed, no run times
	statuses := s.Status()
	if len(statuses) != 2 {
		t.Fatalf("Status returned %d entries, want 2", len(statuses))
	}
	if !statuses[0].NextRun.IsZero() {
		t.Error("NextRun set before Start")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	for _, status := range s.Status() {
		if status.NextRun.IsZero() {
			t.Errorf("schedule %q has no next run after Start", status.Name)
		}
	}
}
