// Package web hosts the browser-facing HTTP surface: catalog pages, the
// sign-in flow, and the JSON API used by in-page refreshes.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/lakeview-dev/lakeview/internal/auth/google"
	"github.com/lakeview-dev/lakeview/internal/auth/session"
	"github.com/lakeview-dev/lakeview/internal/catalog"
	"github.com/lakeview-dev/lakeview/internal/platform/timeouts"
	"github.com/lakeview-dev/lakeview/internal/state"
	"github.com/lakeview-dev/lakeview/internal/state/persist"
	"github.com/lakeview-dev/lakeview/internal/web/httpx"
)

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr   string
	Catalog    *catalog.Client
	Google     *google.Client
	Flows      *google.StateStore
	Sessions   session.Store
	Signer     *session.Signer
	SessionTTL time.Duration
	Store      *state.Store
	Bridge     *persist.Bridge
	Recovery   *state.Recovery
}

// Server hosts the HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler with the standard middleware stack.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("state store is required")
	}
	h := &handler{cfg: cfg, clock: time.Now}
	return httpx.Chain(h.routes(),
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.RequestLogger(log.Default()),
	), nil
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
