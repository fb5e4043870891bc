package feed

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a load did not produce live data.
type FailureKind string

const (
	FailureQuery    FailureKind = "query"
	FailureTimeout  FailureKind = "timeout"
	FailureRecovery FailureKind = "recovery"
)

// ErrNoSnapshot reports that the recovery cache holds nothing usable.
var ErrNoSnapshot = errors.New("no cached updates found")

// Failure is a non-fatal load error shown with Retry and Clear Cache actions.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind) + " failure"
	}
	return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Message is the user-facing text for the failure.
func (f *Failure) Message() string {
	switch f.Kind {
	case FailureTimeout:
		return "Loading updates is taking too long. Retry or clear the cache."
	case FailureRecovery:
		return "Could not load your updates and no cached copy is available."
	default:
		return "Failed to load updates. Retry or clear the cache."
	}
}

// IsFailureKind reports whether err is a Failure of the given kind.
func IsFailureKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}
