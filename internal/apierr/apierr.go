// Package apierr tags upstream API failures with a closed set of error kinds.
//
// Every outbound client (catalog, tokeninfo) classifies failures at the
// network boundary so downstream code dispatches on a tag instead of probing
// status codes or response bodies.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies an upstream API failure.
type Kind int

const (
	// KindOther marks failures that carry no authentication signal.
	KindOther Kind = iota
	// KindAuthExpired marks a credential that was valid but has expired.
	KindAuthExpired
	// KindAuthInvalid marks a credential the upstream rejected outright.
	KindAuthInvalid
)

// String returns a stable label for logs.
func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindAuthInvalid:
		return "auth_invalid"
	default:
		return "other"
	}
}

// Error is an upstream API failure tagged with its kind.
type Error struct {
	// Kind is the classification assigned at the network boundary.
	Kind Kind
	// Status is the HTTP status returned by the upstream, when known.
	Status int
	// Op names the failing operation, e.g. "catalog search".
	Op string
	// Message is the upstream-provided detail, when any.
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// KindOf returns the kind tagged on err, or KindOther for untagged errors.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindOther
}

// IsAuth reports whether err carries an authentication-failure kind.
func IsAuth(err error) bool {
	kind := KindOf(err)
	return kind == KindAuthExpired || kind == KindAuthInvalid
}
