package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lakeview-dev/lakeview/internal/apierr"
)

func TestComputeS256Challenge(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
	if got := ComputeS256Challenge(verifier); got != want {
		t.Fatalf("ComputeS256Challenge() = %v, want %v", got, want)
	}
}

func newTestClient(t *testing.T, config Config) *Client {
	t.Helper()
	config.ClientID = "client-id"
	config.ClientSecret = "client-secret"
	config.RedirectURI = "http://localhost:8080/auth/google/callback"
	client, err := NewClient(config, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestBuildAuthURL(t *testing.T) {
	client := newTestClient(t, Config{})
	flow := PendingFlow{State: "state-123", CodeVerifier: "verifier-xyz"}

	authURL := client.BuildAuthURL(flow)
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	query := parsed.Query()
	if query.Get("state") != "state-123" {
		t.Fatalf("expected state state-123, got %q", query.Get("state"))
	}
	if query.Get("code_challenge") != ComputeS256Challenge("verifier-xyz") {
		t.Fatal("code challenge must match the S256 transform of the verifier")
	}
	if query.Get("code_challenge_method") != "S256" {
		t.Fatalf("expected S256 challenge method, got %q", query.Get("code_challenge_method"))
	}
	if query.Get("response_type") != "code" {
		t.Fatalf("expected response_type code, got %q", query.Get("response_type"))
	}
}

func TestExchangeSendsCodeAndVerifier(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.test","refresh_token":"1//refresh","expires_in":3600}`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{TokenURL: server.URL})
	token, err := client.Exchange(context.Background(), "auth-code", "verifier-xyz")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token.AccessToken != "ya29.test" {
		t.Fatalf("expected access token ya29.test, got %q", token.AccessToken)
	}
	if token.RefreshToken != "1//refresh" {
		t.Fatalf("expected refresh token, got %q", token.RefreshToken)
	}
	if token.ExpiresAt.IsZero() {
		t.Fatal("expected non-zero expiry")
	}
	if gotForm.Get("code") != "auth-code" {
		t.Fatalf("expected code auth-code, got %q", gotForm.Get("code"))
	}
	if gotForm.Get("code_verifier") != "verifier-xyz" {
		t.Fatalf("expected code verifier, got %q", gotForm.Get("code_verifier"))
	}
	if gotForm.Get("grant_type") != "authorization_code" {
		t.Fatalf("expected authorization_code grant, got %q", gotForm.Get("grant_type"))
	}
}

func TestExchangeRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, Config{TokenURL: server.URL})
	if _, err := client.Exchange(context.Background(), "auth-code", "verifier"); err == nil {
		t.Fatal("expected error for non-200 token response")
	}
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ya29.test" {
			t.Errorf("expected bearer header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"108","name":"Ada Lovelace","email":"ada@example.com","locale":"en"}`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{UserInfoURL: server.URL})
	profile, err := client.FetchProfile(context.Background(), "ya29.test")
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profile.Subject != "108" {
		t.Fatalf("expected subject 108, got %q", profile.Subject)
	}
	if profile.DisplayName != "Ada Lovelace" {
		t.Fatalf("expected display name, got %q", profile.DisplayName)
	}
}

func TestFetchProfileFallsBackToEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"108","email":"ada@example.com"}`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{UserInfoURL: server.URL})
	profile, err := client.FetchProfile(context.Background(), "ya29.test")
	if err != nil {
		t.Fatalf("fetch profile: %v", err)
	}
	if profile.DisplayName != "ada@example.com" {
		t.Fatalf("expected email fallback, got %q", profile.DisplayName)
	}
}

func TestVerifyTokenValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_token"); got != "ya29.test" {
			t.Errorf("expected access_token query param, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"108","email":"ada@example.com","scope":"openid email","expires_in":"3599"}`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{TokenInfoURL: server.URL})
	info, err := client.VerifyToken(context.Background(), "ya29.test")
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if info.Subject != "108" {
		t.Fatalf("expected subject 108, got %q", info.Subject)
	}
	if info.ExpiresIn != 3599 {
		t.Fatalf("expected expires_in 3599, got %d", info.ExpiresIn)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token","error_description":"Token expired"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, Config{TokenInfoURL: server.URL})
	_, err := client.VerifyToken(context.Background(), "ya29.stale")
	if apierr.KindOf(err) != apierr.KindAuthExpired {
		t.Fatalf("expected KindAuthExpired, got %v (%v)", apierr.KindOf(err), err)
	}
}

func TestVerifyTokenInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_token"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, Config{TokenInfoURL: server.URL})
	_, err := client.VerifyToken(context.Background(), "ya29.bogus")
	if apierr.KindOf(err) != apierr.KindAuthInvalid {
		t.Fatalf("expected KindAuthInvalid, got %v (%v)", apierr.KindOf(err), err)
	}
}

func TestVerifyTokenZeroExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"108","expires_in":"0"}`))
	}))
	defer server.Close()

	client := newTestClient(t, Config{TokenInfoURL: server.URL})
	_, err := client.VerifyToken(context.Background(), "ya29.stale")
	if apierr.KindOf(err) != apierr.KindAuthExpired {
		t.Fatalf("expected KindAuthExpired, got %v (%v)", apierr.KindOf(err), err)
	}
}

func TestStateStoreConsumeOnce(t *testing.T) {
	store := NewStateStore(time.Minute)
	flow, err := store.Create("/entries/abc")
	if err != nil {
		t.Fatalf("create flow: %v", err)
	}
	if flow.State == "" || flow.CodeVerifier == "" {
		t.Fatal("flow must carry state and verifier")
	}

	got, ok := store.Consume(flow.State)
	if !ok {
		t.Fatal("expected first consume to succeed")
	}
	if got.ReturnTo != "/entries/abc" {
		t.Fatalf("expected return target, got %q", got.ReturnTo)
	}
	if _, ok := store.Consume(flow.State); ok {
		t.Fatal("state must be single use")
	}
}

func TestStateStoreExpiry(t *testing.T) {
	store := NewStateStore(time.Minute)
	base := time.Now().UTC()
	store.clock = func() time.Time { return base }

	flow, err := store.Create("/")
	if err != nil {
		t.Fatalf("create flow: %v", err)
	}

	store.clock = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := store.Consume(flow.State); ok {
		t.Fatal("expired state must not be consumable")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}, nil); err == nil {
		t.Fatal("expected error for missing registration")
	}
	if !strings.Contains(func() string {
		_, err := NewClient(Config{ClientID: "id", ClientSecret: "secret"}, nil)
		return err.Error()
	}(), "redirect uri") {
		t.Fatal("expected redirect uri error")
	}
}
