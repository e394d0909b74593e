// Package session defines browser session records and the signed tokens that
// reference them from the session cookie.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session not found")

// Session is a server-side browser session. The upstream OAuth tokens live
// here, never in the cookie.
type Session struct {
	ID           string
	UserID       string
	Email        string
	DisplayName  string
	Locale       string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Expired reports whether the session lapsed at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store persists session records.
type Store interface {
	Put(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context) ([]Session, error)
}
