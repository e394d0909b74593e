// Package google implements the Google OAuth sign-in flow and access-token
// verification used to talk to the catalog on the user's behalf.
package google

import (
	"errors"
	"strings"
)

// Default Google endpoints. Tests override these with httptest servers.
const (
	DefaultAuthURL      = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL     = "https://oauth2.googleapis.com/token"
	DefaultUserInfoURL  = "https://openidconnect.googleapis.com/v1/userinfo"
	DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// DefaultScopes covers identity plus read access to the metadata catalog.
var DefaultScopes = []string{"openid", "email", "profile", "https://www.googleapis.com/auth/cloud-platform"}

// Config holds the OAuth client registration and endpoint overrides.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	TokenInfoURL string
}

func (c Config) withDefaults() Config {
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.UserInfoURL == "" {
		c.UserInfoURL = DefaultUserInfoURL
	}
	if c.TokenInfoURL == "" {
		c.TokenInfoURL = DefaultTokenInfoURL
	}
	return c
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("client id is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return errors.New("client secret is required")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return errors.New("redirect uri is required")
	}
	return nil
}
