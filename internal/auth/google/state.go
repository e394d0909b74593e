package google

import (
	"errors"
	"sync"
	"time"
)

// PendingFlow records an in-flight authorization attempt keyed by the opaque
// state value returned to the browser.
type PendingFlow struct {
	State        string
	CodeVerifier string
	ReturnTo     string
	ExpiresAt    time.Time
}

// StateStore keeps pending authorization flows in memory until the provider
// redirects back. Entries expire after a fixed TTL.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]PendingFlow
	ttl     time.Duration
	clock   func() time.Time
}

// NewStateStore builds a StateStore with the given entry TTL.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{
		pending: make(map[string]PendingFlow),
		ttl:     ttl,
		clock:   time.Now,
	}
}

// Create registers a new pending flow and returns it. The state value and
// code verifier are generated here so callers never supply their own.
func (s *StateStore) Create(returnTo string) (PendingFlow, error) {
	if s == nil {
		return PendingFlow{}, errors.New("state store is not configured")
	}
	state, err := generateToken(32)
	if err != nil {
		return PendingFlow{}, err
	}
	verifier, err := newCodeVerifier()
	if err != nil {
		return PendingFlow{}, err
	}

	flow := PendingFlow{
		State:        state,
		CodeVerifier: verifier,
		ReturnTo:     returnTo,
		ExpiresAt:    s.clock().UTC().Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.pending[state] = flow
	return flow, nil
}

// Consume removes and returns the pending flow for a state value. A state can
// be consumed at most once; expired or unknown states report false.
func (s *StateStore) Consume(state string) (PendingFlow, bool) {
	if s == nil || state == "" {
		return PendingFlow{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.pending[state]
	if !ok {
		return PendingFlow{}, false
	}
	delete(s.pending, state)
	if flow.ExpiresAt.Before(s.clock().UTC()) {
		return PendingFlow{}, false
	}
	return flow, true
}

func (s *StateStore) sweepLocked() {
	now := s.clock().UTC()
	for state, flow := range s.pending {
		if flow.ExpiresAt.Before(now) {
			delete(s.pending, state)
		}
	}
}
