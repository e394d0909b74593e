package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned by Verify for tokens past their expiry.
var ErrTokenExpired = errors.New("session token expired")

// ErrTokenInvalid is returned by Verify for tokens that fail any other check.
var ErrTokenInvalid = errors.New("session token invalid")

// Signer issues and verifies the signed tokens stored in the session cookie.
// The token carries only the session id; everything else stays server-side.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer with the given HMAC secret and token lifetime.
func NewSigner(secret []byte, ttl time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token referencing the given session id.
func (s *Signer) Issue(sessionID string) (string, error) {
	if s == nil {
		return "", errors.New("signer is not configured")
	}
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the session id.
// Expired tokens return ErrTokenExpired; every other failure returns
// ErrTokenInvalid.
func (s *Signer) Verify(token string) (string, error) {
	if s == nil {
		return "", errors.New("signer is not configured")
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time {
		return s.now()
	}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
