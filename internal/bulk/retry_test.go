package bulk

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"API error (status 429): Rate limit exceeded", true},
		{"API error (status 503): Service Unavailable", true},
		{"API error (status 502): Bad Gateway", true},
		{"Too Many Requests", true},
		{"context deadline exceeded (Client.Timeout exceeded)", true},
		{"dial tcp: connection refused", true},
		{"API error (status 403): Forbidden", false},
		{"API error (status 404): not found", false},
		{"API error (status 400): invalid role id", false},
		{"something unexpected", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := IsRetryable(errors.New(tt.msg)); got != tt.want {
				t.Errorf("IsRetryable(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestIsRetryable_Nil(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true, want false")
	}
}

func TestIsRetryable_CaseInsensitive(t *testing.T) {
	if !IsRetryable(fmt.Errorf("RATE LIMIT hit")) {
		t.Error("uppercase marker not matched")
	}
}
