package bulk

import (
	"testing"
	"time"
)

func TestBackoffDelay_GrowsAndCaps(t *testing.T) {
	base := time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 12; attempt++ {
		d := BackoffDelay(attempt, base)

		if d > MaxBackoffDelay {
			t.Fatalf("attempt %d: delay %v exceeds cap %v", attempt, d, MaxBackoffDelay)
		}
		if d < prev-base/2 {
			t.Errorf("attempt %d: delay %v decreased past jitter tolerance from %v", attempt, d, prev)
		}
		prev = d
	}

	// Deep attempts always land on the cap
	if d := BackoffDelay(30, base); d != MaxBackoffDelay {
		t.Errorf("BackoffDelay(30) = %v, want %v", d, MaxBackoffDelay)
	}
}

func TestBackoffDelay_JitterBounds(t *testing.T) {
	base := 100 * time.Millisecond

	for i := 0; i < 100; i++ {
		d := BackoffDelay(0, base)
		if d < base {
			t.Fatalf("delay %v below base %v", d, base)
		}
		if d >= base+base/2 {
			t.Fatalf("delay %v has jitter >= base/2", d)
		}
	}
}

func TestBackoffDelay_ZeroBaseUsesDefault(t *testing.T) {
	d := BackoffDelay(0, 0)
	if d < DefaultRetryBaseDelay {
		t.Errorf("delay %v below default base %v", d, DefaultRetryBaseDelay)
	}
}
