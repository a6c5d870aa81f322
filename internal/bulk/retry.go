package bulk

import "strings"

// retryableMarkers are substrings that mark an upstream error as transient.
// Matching is string-based because the upstream API returns unstructured
// error bodies; status codes survive in the message text.
var retryableMarkers = []string{
	"429",
	"rate limit",
	"too many requests",
	"503",
	"service unavailable",
	"502",
	"bad gateway",
	"timeout",
	"connection",
}

// IsRetryable reports whether the error looks transient and the item may be
// retried after backoff.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return IsRetryableMessage(err.Error())
}

// IsRetryableMessage is IsRetryable over an error's string form.
func IsRetryableMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range retryableMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
