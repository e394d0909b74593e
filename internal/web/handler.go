package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lakeview-dev/lakeview/internal/auth/session"
	"github.com/lakeview-dev/lakeview/internal/catalog"
	"github.com/lakeview-dev/lakeview/internal/platform/i18n"
	"github.com/lakeview-dev/lakeview/internal/platform/id"
	"github.com/lakeview-dev/lakeview/internal/state"
	"github.com/lakeview-dev/lakeview/internal/web/httpx"
	"github.com/lakeview-dev/lakeview/internal/web/sessioncookie"
)

type handler struct {
	cfg   Config
	clock func() time.Time
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleHome)
	mux.HandleFunc("GET /resources", h.handleResources)
	mux.HandleFunc("GET /entries/{id}", h.handleEntry)
	mux.HandleFunc("GET /session-expired", h.handleSessionExpired)
	mux.HandleFunc("GET /login", h.handleLogin)
	mux.HandleFunc("GET /auth/google/start", h.handleAuthStart)
	mux.HandleFunc("GET /auth/google/callback", h.handleAuthCallback)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("GET /api/search", h.handleAPISearch)
	mux.HandleFunc("GET /api/entries/{id}", h.handleAPIEntry)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	return mux
}

// currentSession resolves the signed-in session from the request cookie.
// session.ErrTokenExpired and session.ErrNotFound cover the lapsed cases;
// any other failure means the cookie is garbage.
func (h *handler) currentSession(r *http.Request) (session.Session, error) {
	token, ok := sessioncookie.Read(r)
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	sessionID, err := h.cfg.Signer.Verify(token)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := h.cfg.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Expired(h.clock().UTC()) {
		return session.Session{}, session.ErrTokenExpired
	}
	return sess, nil
}

// requireSession resolves the session or redirects. Lapsed credentials land
// on the session-expired page through the shared recovery path; a missing
// cookie goes straight to sign-in.
func (h *handler) requireSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, err := h.currentSession(r)
	if err == nil {
		return sess, true
	}
	if errors.Is(err, session.ErrNotFound) && !h.hasCookie(r) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return session.Session{}, false
	}
	h.failAuth(w, r, state.ReasonSessionExpired)
	return session.Session{}, false
}

func (h *handler) hasCookie(r *http.Request) bool {
	_, ok := sessioncookie.Read(r)
	return ok
}

// failAuth reports the failure through the store, so the recovery path runs,
// and sends the browser to the session-expired page.
func (h *handler) failAuth(w http.ResponseWriter, r *http.Request, reason state.Reason) {
	h.cfg.Store.ReportAuthFailure(reason)
	sessioncookie.Clear(w, r)
	http.Redirect(w, r, "/session-expired?reason="+url.QueryEscape(string(reason)), http.StatusFound)
}

// handleUpstreamError routes catalog failures: auth errors go through the
// recovery path, everything else renders the shared error page.
func (h *handler) handleUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if reason, ok := state.AuthReason(err); ok {
		h.failAuth(w, r, reason)
		return
	}
	log.Printf("catalog request failed path=%s err=%v", r.URL.Path, err)
	h.renderError(w, http.StatusBadGateway, "The catalog is unavailable right now.")
}

func (h *handler) page(title string, sess session.Session) pageView {
	lang, _ := i18n.ParseLocale(sess.Locale)
	return pageView{
		Title:       title,
		Lang:        lang.String(),
		SignedIn:    sess.ID != "",
		DisplayName: sess.DisplayName,
	}
}

func (h *handler) render(w http.ResponseWriter, status int, name string, view any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, view); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

func (h *handler) renderError(w http.ResponseWriter, status int, message string) {
	h.render(w, status, "error.html", errorView{
		pageView: pageView{Title: "Error"},
		Status:   status,
		Message:  message,
	})
}

func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	search := h.cfg.Store.Search()
	if query.Has("q") {
		search = state.SearchState{
			Term:      strings.TrimSpace(query.Get("q")),
			Filters:   search.Filters,
			PageToken: query.Get("pageToken"),
		}
		h.cfg.Store.SetSearch(search)
	}

	view := homeView{
		pageView: h.page("Search", sess),
		Term:     search.Term,
		Filters:  search.Filters,
	}
	if search.Term != "" {
		result, err := h.cfg.Catalog.Search(r.Context(), sess.AccessToken, catalog.SearchQuery{
			Query:     search.Term,
			Types:     search.Filters,
			PageToken: search.PageToken,
		})
		if err != nil {
			h.handleUpstreamError(w, r, err)
			return
		}
		view.Searched = true
		view.Results = result.Entries
		view.NextPageToken = result.NextPageToken
	}
	h.render(w, http.StatusOK, "home.html", view)
}

func (h *handler) handleResources(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	resources := h.cfg.Store.Resources()
	if query.Has("type") || query.Has("system") {
		resources = state.ResourcesState{
			Types:   query["type"],
			Systems: query["system"],
		}
		h.cfg.Store.SetResources(resources)
	}

	result, err := h.cfg.Catalog.Search(r.Context(), sess.AccessToken, catalog.SearchQuery{
		Types:     resources.Types,
		Systems:   resources.Systems,
		PageToken: query.Get("pageToken"),
	})
	if err != nil {
		h.handleUpstreamError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "resources.html", resourcesView{
		pageView:      h.page("Resources", sess),
		Systems:       resources.Systems,
		Types:         resources.Types,
		Results:       result.Entries,
		NextPageToken: result.NextPageToken,
	})
}

func (h *handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	entryID := r.PathValue("id")

	h.cfg.Store.OpenEntry(entryID)
	tab := r.URL.Query().Get("tab")
	if tab == "" {
		tab = h.cfg.Store.Entry().ActiveTab
	}
	switch tab {
	case "schema", "lineage", "profile":
	default:
		tab = "schema"
	}
	h.cfg.Store.SetEntryView(tab, 0)

	entry, err := h.cfg.Catalog.GetEntry(r.Context(), sess.AccessToken, entryID)
	if err != nil {
		h.handleUpstreamError(w, r, err)
		return
	}

	view := entryView{
		pageView:  h.page(entry.DisplayName, sess),
		Entry:     entry,
		ActiveTab: tab,
		History:   h.cfg.Store.Entry().History,
	}

	// Secondary panels degrade to an empty section instead of failing the
	// whole page, unless the failure is an auth signal.
	switch tab {
	case "lineage":
		lineage, err := h.cfg.Catalog.Lineage(r.Context(), sess.AccessToken, entryID)
		if err != nil {
			if reason, ok := state.AuthReason(err); ok {
				h.failAuth(w, r, reason)
				return
			}
			log.Printf("lineage fetch failed entry=%s err=%v", entryID, err)
		} else {
			view.Lineage = &lineage
		}
	case "profile":
		profile, err := h.cfg.Catalog.ProfileScan(r.Context(), sess.AccessToken, entryID)
		if err != nil {
			if reason, ok := state.AuthReason(err); ok {
				h.failAuth(w, r, reason)
				return
			}
			log.Printf("profile fetch failed entry=%s err=%v", entryID, err)
		} else {
			view.Profile = &profile
		}
	}

	h.render(w, http.StatusOK, "entry.html", view)
}

var reasonMessages = map[state.Reason]string{
	state.ReasonSessionExpired: "Your session has ended. Your search and filters were cleared.",
	state.ReasonTokenExpired:   "Your Google credential expired. Your search and filters were cleared.",
	state.ReasonUnauthorized:   "The catalog rejected your credential. Your search and filters were cleared.",
}

func (h *handler) handleSessionExpired(w http.ResponseWriter, r *http.Request) {
	reason := state.ParseReason(r.URL.Query().Get("reason"))
	h.render(w, http.StatusOK, "session_expired.html", sessionExpiredView{
		pageView: pageView{Title: "Session ended"},
		Reason:   string(reason),
		Message:  reasonMessages[reason],
	})
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if _, err := h.currentSession(r); err == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, http.StatusOK, "login.html", pageView{Title: "Sign in"})
}

func (h *handler) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("next")
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = "/"
	}
	flow, err := h.cfg.Flows.Create(returnTo)
	if err != nil {
		log.Printf("start auth flow: %v", err)
		h.renderError(w, http.StatusInternalServerError, "Could not start sign-in.")
		return
	}
	http.Redirect(w, r, h.cfg.Google.BuildAuthURL(flow), http.StatusFound)
}

func (h *handler) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	stateValue := query.Get("state")
	if code == "" || stateValue == "" {
		h.renderError(w, http.StatusBadRequest, "Sign-in response is missing code or state.")
		return
	}
	flow, ok := h.cfg.Flows.Consume(stateValue)
	if !ok {
		h.renderError(w, http.StatusBadRequest, "Sign-in attempt is unknown or expired. Try again.")
		return
	}

	token, err := h.cfg.Google.Exchange(r.Context(), code, flow.CodeVerifier)
	if err != nil {
		log.Printf("token exchange failed: %v", err)
		h.renderError(w, http.StatusBadGateway, "Google rejected the sign-in. Try again.")
		return
	}
	profile, err := h.cfg.Google.FetchProfile(r.Context(), token.AccessToken)
	if err != nil {
		log.Printf("profile fetch failed: %v", err)
		h.renderError(w, http.StatusBadGateway, "Could not load your Google profile. Try again.")
		return
	}

	locale := profile.Locale
	if tag, ok := i18n.ParseLocale(locale); ok {
		locale = tag.String()
	} else {
		locale = i18n.MatchAcceptLanguage(r.Header.Get("Accept-Language")).String()
	}

	sessionID, err := id.NewID()
	if err != nil {
		log.Printf("generate session id: %v", err)
		h.renderError(w, http.StatusInternalServerError, "Could not issue your session.")
		return
	}
	now := h.clock().UTC()
	sess := session.Session{
		ID:           sessionID,
		UserID:       profile.Subject,
		Email:        profile.Email,
		DisplayName:  profile.DisplayName,
		Locale:       locale,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(h.cfg.SessionTTL),
	}
	if !token.ExpiresAt.IsZero() && token.ExpiresAt.Before(sess.ExpiresAt) {
		sess.ExpiresAt = token.ExpiresAt
	}
	if err := h.cfg.Sessions.Put(r.Context(), sess); err != nil {
		log.Printf("store session: %v", err)
		h.renderError(w, http.StatusInternalServerError, "Could not store your session.")
		return
	}
	signed, err := h.cfg.Signer.Issue(sess.ID)
	if err != nil {
		log.Printf("issue session token: %v", err)
		h.renderError(w, http.StatusInternalServerError, "Could not issue your session.")
		return
	}
	sessioncookie.Write(w, r, signed)
	h.cfg.Recovery.Reset()
	http.Redirect(w, r, flow.ReturnTo, http.StatusFound)
}

func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, err := h.currentSession(r); err == nil {
		if err := h.cfg.Sessions.Delete(r.Context(), sess.ID); err != nil {
			log.Printf("delete session: %v", err)
		}
	}
	sessioncookie.Clear(w, r)
	h.cfg.Bridge.Clear()
	http.Redirect(w, r, "/login", http.StatusFound)
}

// apiToken resolves the catalog credential for a JSON API request. A bearer
// header is verified against the tokeninfo endpoint and used directly; without
// one the session cookie's stored token is used.
func (h *handler) apiToken(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		if _, err := h.cfg.Google.VerifyToken(r.Context(), token); err != nil {
			return "", err
		}
		return token, nil
	}
	sess, err := h.currentSession(r)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

func (h *handler) writeAPIAuthError(w http.ResponseWriter, err error) {
	if reason, ok := state.AuthReason(err); ok {
		h.cfg.Store.ReportAuthFailure(reason)
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, string(reason))
		return
	}
	h.cfg.Store.ReportAuthFailure(state.ReasonSessionExpired)
	_ = httpx.WriteJSONError(w, http.StatusUnauthorized, "session expired")
}

func (h *handler) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	token, err := h.apiToken(r)
	if err != nil {
		h.writeAPIAuthError(w, err)
		return
	}
	query := r.URL.Query()
	search := state.Wrap(h.cfg.Recovery, func(ctx context.Context) (catalog.SearchResult, error) {
		return h.cfg.Catalog.Search(ctx, token, catalog.SearchQuery{
			Query:     query.Get("q"),
			Types:     query["type"],
			Systems:   query["system"],
			PageToken: query.Get("pageToken"),
		})
	})
	result, err := search(r.Context())
	if err != nil {
		h.writeAPIError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *handler) handleAPIEntry(w http.ResponseWriter, r *http.Request) {
	token, err := h.apiToken(r)
	if err != nil {
		h.writeAPIAuthError(w, err)
		return
	}
	getEntry := state.Wrap(h.cfg.Recovery, func(ctx context.Context) (catalog.Entry, error) {
		return h.cfg.Catalog.GetEntry(ctx, token, r.PathValue("id"))
	})
	entry, err := getEntry(r.Context())
	if err != nil {
		h.writeAPIError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, entry)
}

// writeAPIError shapes a failed catalog call into a JSON response. Auth
// failures already reached recovery through the wrapped call.
func (h *handler) writeAPIError(w http.ResponseWriter, err error) {
	if reason, ok := state.AuthReason(err); ok {
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, string(reason))
		return
	}
	log.Printf("api catalog request failed: %v", err)
	_ = httpx.WriteJSONError(w, http.StatusBadGateway, "catalog unavailable")
}

func (h *handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
