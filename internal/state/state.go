// Package state holds the in-memory workspace state: what the user last
// searched for, which resource filters are active, and which entry is open.
// Selected slices of this state are mirrored to durable storage by the
// persist subpackage; the store itself is storage-agnostic.
package state

import "sync"

// maxHistory caps the in-memory entry navigation trail.
const maxHistory = 50

// SearchState is the persisted snapshot of the search slice.
type SearchState struct {
	Term      string   `json:"term"`
	Filters   []string `json:"filters,omitempty"`
	PageToken string   `json:"pageToken,omitempty"`
}

// ResourcesState is the persisted snapshot of the resource-browser slice.
type ResourcesState struct {
	Systems []string `json:"systems,omitempty"`
	Types   []string `json:"types,omitempty"`
}

// EntryState is the persisted snapshot of the entry-detail slice.
//
// History is serialized but always written out empty: the navigation trail is
// ephemeral and must not survive a reload.
type EntryState struct {
	CurrentID string   `json:"currentId,omitempty"`
	ActiveTab string   `json:"activeTab,omitempty"`
	ScrollPos int      `json:"scrollPos,omitempty"`
	History   []string `json:"history"`
}

// PersistedState is the subset of workspace state mirrored to durable
// storage. Only these three slices are ever read or written; absent slices
// stay nil.
type PersistedState struct {
	Search    *SearchState    `json:"search,omitempty"`
	Resources *ResourcesState `json:"resources,omitempty"`
	Entry     *EntryState     `json:"entry,omitempty"`
}

// ChangeKind identifies what a store notification is about.
type ChangeKind int

const (
	// ChangeSearch reports a transition of the search slice.
	ChangeSearch ChangeKind = iota
	// ChangeResources reports a transition of the resources slice.
	ChangeResources
	// ChangeEntry reports a transition of the entry slice.
	ChangeEntry
	// ChangeAuthFailure reports an authentication failure pushed through the
	// store rather than a slice transition.
	ChangeAuthFailure
)

// Change is delivered to subscribers on every store transition.
type Change struct {
	Kind ChangeKind
	// Reason is set for ChangeAuthFailure only.
	Reason Reason
}

// IsPersistedSlice reports whether the change touched a slice the bridge
// mirrors to storage.
func (c Change) IsPersistedSlice() bool {
	switch c.Kind {
	case ChangeSearch, ChangeResources, ChangeEntry:
		return true
	default:
		return false
	}
}

// Store is the workspace state container. A single instance is created by
// the composition root and threaded explicitly into every consumer.
type Store struct {
	mu        sync.RWMutex
	search    SearchState
	resources ResourcesState
	entry     EntryState
	subs      []func(Change)
}

// NewStore returns an empty workspace store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers fn for every subsequent transition. Subscribers are
// invoked synchronously, outside the store lock, in registration order.
func (s *Store) Subscribe(fn func(Change)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) notify(change Change) {
	s.mu.RLock()
	subs := make([]func(Change), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
}

// Hydrate merges a previously persisted snapshot into the store. It is meant
// to run once at startup, before any subscriber is registered, and does not
// notify.
func (s *Store) Hydrate(persisted PersistedState) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if persisted.Search != nil {
		s.search = *persisted.Search
	}
	if persisted.Resources != nil {
		s.resources = *persisted.Resources
	}
	if persisted.Entry != nil {
		s.entry = *persisted.Entry
	}
}

// SetSearch replaces the search slice.
func (s *Store) SetSearch(search SearchState) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.search = search
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeSearch})
}

// Search returns a copy of the search slice.
func (s *Store) Search() SearchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SetResources replaces the resources slice.
func (s *Store) SetResources(resources ResourcesState) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.resources = resources
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeResources})
}

// Resources returns a copy of the resources slice.
func (s *Store) Resources() ResourcesState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resources
}

// OpenEntry makes entryID the current entry and pushes the previous one onto
// the navigation history, keeping at most maxHistory entries.
func (s *Store) OpenEntry(entryID string) {
	if s == nil || entryID == "" {
		return
	}
	s.mu.Lock()
	if s.entry.CurrentID != "" && s.entry.CurrentID != entryID {
		s.entry.History = append(s.entry.History, s.entry.CurrentID)
		if len(s.entry.History) > maxHistory {
			s.entry.History = s.entry.History[len(s.entry.History)-maxHistory:]
		}
	}
	s.entry.CurrentID = entryID
	s.entry.ScrollPos = 0
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeEntry})
}

// SetEntryView updates the presentation fields of the entry slice without
// touching the navigation history.
func (s *Store) SetEntryView(activeTab string, scrollPos int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.entry.ActiveTab = activeTab
	s.entry.ScrollPos = scrollPos
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeEntry})
}

// Entry returns a copy of the entry slice, history included.
func (s *Store) Entry() EntryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.entry
	entry.History = append([]string(nil), s.entry.History...)
	return entry
}

// ReportAuthFailure pushes an authentication failure through the store so
// subscribers observe it like any other transition.
func (s *Store) ReportAuthFailure(reason Reason) {
	if s == nil {
		return
	}
	s.notify(Change{Kind: ChangeAuthFailure, Reason: reason})
}

// Snapshot returns the persisted subset of the current state. All three
// slices are present in a snapshot taken from a live store; nil slices only
// occur in hand-built values.
func (s *Store) Snapshot() PersistedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := s.search
	resources := s.resources
	entry := s.entry
	entry.History = append([]string(nil), s.entry.History...)
	return PersistedState{
		Search:    &search,
		Resources: &resources,
		Entry:     &entry,
	}
}
