package testutil

import (
	"strings"
	"testing"
)

// RequireNoError fails the test immediately if err is non-nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireEqual fails the test immediately if expected != actual.
func RequireEqual[T comparable](t *testing.T, expected, actual T, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// RequireLen fails if len(s) != n.
func RequireLen[T ~[]E, E any](t *testing.T, s T, n int, msg string) {
	t.Helper()
	if len(s) != n {
		t.Fatalf("%s: expected len=%d, got %d", msg, n, len(s))
	}
}

// RequireLines fails unless s splits into exactly want (trailing newline ignored).
func RequireLines(t *testing.T, s string, want []string, msg string) {
	t.Helper()
	got := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if s == "" {
		got = nil
	}
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d lines, got %d: %q", msg, len(want), len(got), s)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: line %d: expected %q, got %q", msg, i+1, want[i], got[i])
		}
	}
}
