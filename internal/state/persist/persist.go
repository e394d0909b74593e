// Package persist mirrors selected workspace state slices into durable local
// storage. It is a one-way, best-effort cache: the live catalog API stays the
// source of truth, so every failure here is logged and absorbed rather than
// surfaced. Writes replace whole slices; there is no merge, versioning, or
// schema migration.
package persist

import (
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/lakeview-dev/lakeview/internal/state"
)

const workspaceBucket = "workspace"

// Storage keys for the persisted slices, constant for the process lifetime.
const (
	keySearch    = "searchState"
	keyResources = "resourcesState"
	keyEntry     = "entryState"
)

// Bridge mirrors the persisted workspace slices into a bbolt file.
type Bridge struct {
	db   *bbolt.DB
	logf func(format string, args ...any)
}

// Open opens the workspace store at the provided path.
func Open(path string) (*Bridge, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open workspace db: %w", err)
	}

	bridge := &Bridge{db: db, logf: log.Printf}
	if err := bridge.ensureBucket(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return bridge, nil
}

// Close closes the underlying database.
func (b *Bridge) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Bridge) ensureBucket() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(workspaceBucket))
		if err != nil {
			return fmt.Errorf("create workspace bucket: %w", err)
		}
		return nil
	})
}

func (b *Bridge) warn(format string, args ...any) {
	if b == nil || b.logf == nil {
		return
	}
	b.logf("workspace persist: "+format, args...)
}

// Save writes each present slice of s under its mapped storage key,
// overwriting whatever was there. The entry slice is written with its
// navigation history emptied so a reload always starts with a clean trail.
// Save never fails from the caller's perspective: serialization and storage
// errors are logged as warnings and the affected key is skipped, leaving
// previously written keys untouched.
func (b *Bridge) Save(s state.PersistedState) {
	if b == nil || b.db == nil {
		return
	}

	payloads := make(map[string][]byte, 3)
	if s.Search != nil {
		if payload, err := json.Marshal(s.Search); err != nil {
			b.warn("marshal search slice: %v", err)
		} else {
			payloads[keySearch] = payload
		}
	}
	if s.Resources != nil {
		if payload, err := json.Marshal(s.Resources); err != nil {
			b.warn("marshal resources slice: %v", err)
		} else {
			payloads[keyResources] = payload
		}
	}
	if s.Entry != nil {
		entry := *s.Entry
		entry.History = []string{}
		if payload, err := json.Marshal(&entry); err != nil {
			b.warn("marshal entry slice: %v", err)
		} else {
			payloads[keyEntry] = payload
		}
	}
	if len(payloads) == 0 {
		return
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(workspaceBucket))
		if bucket == nil {
			return fmt.Errorf("workspace bucket is missing")
		}
		for key, payload := range payloads {
			if err := bucket.Put([]byte(key), payload); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		b.warn("save workspace state: %v", err)
	}
}

// Load reads the persisted slices back. Slices that were never saved are
// left nil. A corrupt key is logged and skipped so the remaining slices
// still load; a storage-level failure yields an empty result.
func (b *Bridge) Load() state.PersistedState {
	var out state.PersistedState
	if b == nil || b.db == nil {
		return out
	}

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(workspaceBucket))
		if bucket == nil {
			return nil
		}

		if raw := bucket.Get([]byte(keySearch)); raw != nil {
			var search state.SearchState
			if err := json.Unmarshal(raw, &search); err != nil {
				b.warn("parse %s: %v", keySearch, err)
			} else {
				out.Search = &search
			}
		}
		if raw := bucket.Get([]byte(keyResources)); raw != nil {
			var resources state.ResourcesState
			if err := json.Unmarshal(raw, &resources); err != nil {
				b.warn("parse %s: %v", keyResources, err)
			} else {
				out.Resources = &resources
			}
		}
		if raw := bucket.Get([]byte(keyEntry)); raw != nil {
			var entry state.EntryState
			if err := json.Unmarshal(raw, &entry); err != nil {
				b.warn("parse %s: %v", keyEntry, err)
			} else {
				out.Entry = &entry
			}
		}
		return nil
	})
	if err != nil {
		b.warn("load workspace state: %v", err)
		return state.PersistedState{}
	}

	return out
}

// Clear removes all three storage keys unconditionally. Failures are logged,
// never returned.
func (b *Bridge) Clear() {
	if b == nil || b.db == nil {
		return
	}
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(workspaceBucket))
		if bucket == nil {
			return nil
		}
		for _, key := range []string{keySearch, keyResources, keyEntry} {
			if err := bucket.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		b.warn("clear workspace state: %v", err)
	}
}
