package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

var (
	// ErrMissingCredential is returned at startup when the model provider secret is absent.
	ErrMissingCredential = stderrors.New("missing model provider credential")
	// ErrStepLimit is returned when the agent exceeds its reasoning step budget.
	ErrStepLimit = stderrors.New("agent step limit reached")
	// ErrGateClosed is returned when waiting for exclusive agent access is abandoned.
	ErrGateClosed = stderrors.New("agent gate wait abandoned")
)

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	return fmt.Errorf("[%s] %s", caller(), fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s: %w", caller(), fmt.Sprintf(format, a...), err)
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Capability names an external collaborator of the agent.
type Capability string

const (
	CapabilitySearch    Capability = "search"
	CapabilityReasoning Capability = "reasoning"
)

// CapabilityError marks a failure of an external capability (web search or
// language model). These surface per request and are never retried here.
type CapabilityError struct {
	Capability Capability
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s capability failed: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Capabilityf wraps err as a CapabilityError of the given kind.
func Capabilityf(c Capability, err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	return &CapabilityError{
		Capability: c,
		Err:        fmt.Errorf("[%s] %s: %w", caller(), fmt.Sprintf(format, a...), err),
	}
}
