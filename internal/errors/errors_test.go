package errors

import (
	stderrors "errors"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrUnknownProfile, "resolving profile for %s", "foo.service")
		if err == nil {
			t.Fatal("Wrap() returned nil")
		}
		if !stderrors.Is(err, ErrUnknownProfile) {
			t.Error("wrapped error lost identity")
		}
		want := "resolving profile for foo.service: unknown profile"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if err := Wrap(nil, "context"); err != nil {
			t.Errorf("Wrap(nil) = %v, want nil", err)
		}
	})
}

func TestIs(t *testing.T) {
	err := Wrap(ErrHealthCheck, "hardening %s", "nginx.service")

	if !Is(err, ErrHealthCheck) {
		t.Error("Is() = false for matching sentinel")
	}
	if Is(err, ErrExcluded) {
		t.Error("Is() = true for non-matching sentinel")
	}
}

func TestSentinelsDistinct(t *testing.T) {
	sentinels := []error{
		ErrExcluded, ErrUnknownProfile, ErrAnalyzeFailed, ErrHealthCheck,
		ErrCommandNotFound, ErrTimeoutExceeded, ErrInvalidConfig,
		ErrFileOperation, ErrRollbackFailed,
	}

	seen := map[string]bool{}
	for _, s := range sentinels {
		if seen[s.Error()] {
			t.Errorf("duplicate sentinel message: %q", s.Error())
		}
		seen[s.Error()] = true
	}
}
