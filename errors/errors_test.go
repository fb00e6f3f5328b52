package errors

import (
	"context"
	"strings"
	"testing"
)

func TestNewIncludesCallerLocation(t *testing.T) {
	err := New("bad value %d", 7)
	if !strings.HasPrefix(err.Error(), "[errors_test.go:") {
		t.Errorf("expected caller prefix, got %q", err.Error())
	}
	if !strings.HasSuffix(err.Error(), "bad value 7") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "ignored") != nil {
		t.Fatal("Wrapf(nil) should be nil")
	}
	err := Wrapf(ErrStepLimit, "run %s", "abc")
	if !Is(err, ErrStepLimit) {
		t.Errorf("wrapped error lost its sentinel: %v", err)
	}
	if !strings.Contains(err.Error(), "run abc") {
		t.Errorf("missing context in %q", err.Error())
	}
}

func TestCapabilityError(t *testing.T) {
	err := Wrapf(Capabilityf(CapabilitySearch, context.DeadlineExceeded, "query %q", "go"), "agent")

	var ce *CapabilityError
	if !As(err, &ce) {
		t.Fatalf("expected CapabilityError in chain: %v", err)
	}
	if ce.Capability != CapabilitySearch {
		t.Errorf("capability = %q, want %q", ce.Capability, CapabilitySearch)
	}
	if !Is(err, context.DeadlineExceeded) {
		t.Error("cause should remain reachable through Unwrap")
	}
	if Capabilityf(CapabilityReasoning, nil, "x") != nil {
		t.Error("Capabilityf(nil) should be nil")
	}
}
