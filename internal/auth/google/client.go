package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lakeview-dev/lakeview/internal/apierr"
	"github.com/lakeview-dev/lakeview/internal/platform/timeouts"
)

// Token is the credential set returned by the token exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
	IDToken      string
}

// Profile is the subset of the OpenID userinfo response the app keeps.
type Profile struct {
	Subject     string
	Email       string
	DisplayName string
	Locale      string
}

// TokenInfo is the result of verifying an access token against the
// tokeninfo endpoint.
type TokenInfo struct {
	Subject   string
	Email     string
	Scope     string
	ExpiresIn int64
}

// Client drives the authorization-code flow against Google's endpoints.
type Client struct {
	config     Config
	httpClient *http.Client
	clock      func() time.Time
}

// NewClient validates the configuration and builds a Client. A nil httpClient
// falls back to a client with the standard token-verify timeout.
func NewClient(config Config, httpClient *http.Client) (*Client, error) {
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("google client config: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.TokenVerify}
	}
	return &Client{config: config, httpClient: httpClient, clock: time.Now}, nil
}

// BuildAuthURL assembles the consent-screen URL for a pending flow.
func (c *Client) BuildAuthURL(flow PendingFlow) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", c.config.ClientID)
	query.Set("redirect_uri", c.config.RedirectURI)
	query.Set("scope", strings.Join(c.config.Scopes, " "))
	query.Set("state", flow.State)
	query.Set("code_challenge", ComputeS256Challenge(flow.CodeVerifier))
	query.Set("code_challenge_method", "S256")
	query.Set("access_type", "offline")
	return c.config.AuthURL + "?" + query.Encode()
}

// Exchange trades an authorization code plus its PKCE verifier for tokens.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (Token, error) {
	if code == "" {
		return Token{}, errors.New("authorization code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.config.RedirectURI)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	form.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Scope        string `json:"scope"`
		ExpiresIn    int64  `json:"expires_in"`
		IDToken      string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return Token{}, errors.New("token response missing access token")
	}

	expiresAt := time.Time{}
	if payload.ExpiresIn > 0 {
		expiresAt = c.clock().UTC().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Scope:        payload.Scope,
		ExpiresAt:    expiresAt,
		IDToken:      payload.IDToken,
	}, nil
}

// FetchProfile loads the OpenID profile for an access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.UserInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Sub    string `json:"sub"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Locale string `json:"locale"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo response: %w", err)
	}
	if payload.Sub == "" {
		return Profile{}, errors.New("userinfo response missing subject")
	}
	return Profile{
		Subject:     payload.Sub,
		Email:       payload.Email,
		DisplayName: firstNonEmpty(payload.Name, payload.Email, payload.Sub),
		Locale:      payload.Locale,
	}, nil
}

// VerifyToken checks an access token against the tokeninfo endpoint. Tokens
// rejected by Google come back tagged so callers can tell an expired
// credential from an invalid one.
func (c *Client) VerifyToken(ctx context.Context, accessToken string) (TokenInfo, error) {
	const op = "google.VerifyToken"
	if accessToken == "" {
		return TokenInfo{}, &apierr.Error{
			Kind:    apierr.KindAuthInvalid,
			Status:  http.StatusUnauthorized,
			Op:      op,
			Message: "missing access token",
		}
	}

	endpoint := c.config.TokenInfoURL + "?access_token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("build tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		kind := apierr.KindAuthInvalid
		if strings.Contains(strings.ToLower(string(body)), "expired") {
			kind = apierr.KindAuthExpired
		}
		return TokenInfo{}, &apierr.Error{
			Kind:    kind,
			Status:  http.StatusUnauthorized,
			Op:      op,
			Message: "token rejected by tokeninfo",
		}
	}

	var payload struct {
		Sub       string `json:"sub"`
		Email     string `json:"email"`
		Scope     string `json:"scope"`
		ExpiresIn string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return TokenInfo{}, fmt.Errorf("decode tokeninfo response: %w", err)
	}

	expiresIn, _ := strconv.ParseInt(payload.ExpiresIn, 10, 64)
	if expiresIn <= 0 {
		return TokenInfo{}, &apierr.Error{
			Kind:    apierr.KindAuthExpired,
			Status:  http.StatusUnauthorized,
			Op:      op,
			Message: "token already expired",
		}
	}
	return TokenInfo{
		Subject:   payload.Sub,
		Email:     payload.Email,
		Scope:     payload.Scope,
		ExpiresIn: expiresIn,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return "Unknown User"
}
