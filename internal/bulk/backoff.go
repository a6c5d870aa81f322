package bulk

import (
	"math/rand"
	"time"
)

// MaxBackoffDelay caps every retry delay.
const MaxBackoffDelay = 60 * time.Second

// DefaultRetryBaseDelay is the base delay when none is configured.
const DefaultRetryBaseDelay = time.Second

// BackoffDelay returns the delay before retry number attempt (zero-indexed):
// min(cap, base·2^attempt) plus uniform jitter in [0, base/2). The returned
// delay never exceeds MaxBackoffDelay.
func BackoffDelay(attempt int, base time.Duration) time.Duration {
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}

	delay := base
	for i := 0; i < attempt && delay < MaxBackoffDelay; i++ {
		delay *= 2
	}
	if delay > MaxBackoffDelay {
		delay = MaxBackoffDelay
	}

	if jitterRange := int64(base / 2); jitterRange > 0 {
		delay += time.Duration(rand.Int63n(jitterRange))
	}
	if delay > MaxBackoffDelay {
		delay = MaxBackoffDelay
	}

	return delay
}
