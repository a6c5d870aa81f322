package main

import "testing"

func TestParseProducts(t *testing.T) {
	access, err := parseProducts([]string{"docs=member", "build=administrator"})
	if err != nil {
		t.Fatalf("parseProducts error: %v", err)
	}
	if len(access) != 2 {
		t.Fatalf("parseProducts returned %d entries", len(access))
	}
	if access[0].Key != "docs" || access[0].Access != "member" {
		t.Errorf("access[0] = %+v", access[0])
	}

	for _, bad := range []string{"docs", "=member", "docs=", ""} {
		if _, err := parseProducts([]string{bad}); err == nil {
			t.Errorf("parseProducts(%q) succeeded, want error", bad)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a very long project name", 10); len([]rune(got)) != 10 {
		t.Errorf("truncate = %q (len %d)", got, len([]rune(got)))
	}
}
