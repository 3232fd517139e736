package identity

import (
	"errors"
	"fmt"
)

// Kind classifies provider and profile-store failures for diagnostics.
// Operations never surface these to callers; they are logged and collapsed
// into a boolean result.
type Kind string

const (
	// KindCredential covers bad, duplicate or weak credentials, wrong
	// passwords, unknown and disabled accounts.
	KindCredential Kind = "credential"
	// KindFederated covers an interactive federated flow that was
	// dismissed, blocked or timed out.
	KindFederated Kind = "federated_auth"
	// KindProfileSync covers document-store read/write failures.
	KindProfileSync Kind = "profile_sync"
	// KindUnavailable covers network or provider-infrastructure failures.
	KindUnavailable Kind = "provider_unavailable"
)

// Error is the typed failure used across the identity boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and the operation that produced it.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind from err, defaulting to KindUnavailable
// for anything untyped.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnavailable
}
