package state

import (
	"context"
	"sync/atomic"

	"github.com/lakeview-dev/lakeview/internal/apierr"
)

// Reason codes for the session-expired view.
type Reason string

const (
	// ReasonSessionExpired means the server-side session lapsed.
	ReasonSessionExpired Reason = "session-expired"
	// ReasonTokenExpired means the upstream bearer token lapsed.
	ReasonTokenExpired Reason = "token-expired"
	// ReasonUnauthorized means the upstream rejected the credential outright.
	ReasonUnauthorized Reason = "unauthorized"
)

// ParseReason returns the Reason for a raw query value, defaulting to
// ReasonSessionExpired for anything unknown.
func ParseReason(value string) Reason {
	switch Reason(value) {
	case ReasonTokenExpired:
		return ReasonTokenExpired
	case ReasonUnauthorized:
		return ReasonUnauthorized
	default:
		return ReasonSessionExpired
	}
}

// AuthReason maps a tagged upstream error to a session-expired reason code.
// The second return is false for errors that carry no authentication signal.
func AuthReason(err error) (Reason, bool) {
	switch apierr.KindOf(err) {
	case apierr.KindAuthExpired:
		return ReasonTokenExpired, true
	case apierr.KindAuthInvalid:
		return ReasonUnauthorized, true
	default:
		return "", false
	}
}

// Recovery funnels authentication failures from every code path into one
// handler. Near-simultaneous failures from concurrent requests trigger the
// handler exactly once; Reset re-arms it after the user signs in again.
type Recovery struct {
	handler func(Reason)
	fired   atomic.Bool
}

// NewRecovery builds a Recovery around the shared session-expired handler.
func NewRecovery(handler func(Reason)) *Recovery {
	return &Recovery{handler: handler}
}

// Trigger invokes the handler unless it already fired since the last Reset.
func (r *Recovery) Trigger(reason Reason) {
	if r == nil || r.handler == nil {
		return
	}
	if r.fired.CompareAndSwap(false, true) {
		r.handler(reason)
	}
}

// Reset re-arms the recovery after a successful sign-in.
func (r *Recovery) Reset() {
	if r == nil {
		return
	}
	r.fired.Store(false)
}

// Fired reports whether the handler ran since the last Reset.
func (r *Recovery) Fired() bool {
	if r == nil {
		return false
	}
	return r.fired.Load()
}

// Wrap returns an operation equivalent to op whose auth failures also
// trigger r. The result and error reach the caller unchanged; the wrapper
// observes, it never swallows.
func Wrap[T any](r *Recovery, op func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		value, err := op(ctx)
		if err != nil {
			if reason, ok := AuthReason(err); ok {
				r.Trigger(reason)
			}
		}
		return value, err
	}
}

// Observe registers a store subscriber that routes auth-failure changes into
// r, so failures dispatched through the store and failures returned by
// wrapped operations converge on the same handler.
func Observe(store *Store, r *Recovery) {
	if store == nil || r == nil {
		return
	}
	store.Subscribe(func(change Change) {
		if change.Kind == ChangeAuthFailure {
			r.Trigger(change.Reason)
		}
	})
}
