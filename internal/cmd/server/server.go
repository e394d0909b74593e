// Package server wires configuration and startup for the lakeview web server.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lakeview-dev/lakeview/internal/auth/google"
	"github.com/lakeview-dev/lakeview/internal/auth/session"
	sessionsqlite "github.com/lakeview-dev/lakeview/internal/auth/session/sqlite"
	"github.com/lakeview-dev/lakeview/internal/catalog"
	"github.com/lakeview-dev/lakeview/internal/platform/config"
	"github.com/lakeview-dev/lakeview/internal/platform/otel"
	"github.com/lakeview-dev/lakeview/internal/platform/timeouts"
	"github.com/lakeview-dev/lakeview/internal/state"
	"github.com/lakeview-dev/lakeview/internal/state/persist"
	"github.com/lakeview-dev/lakeview/internal/web"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr           string        `env:"LAKEVIEW_HTTP_ADDR" envDefault:"localhost:8080"`
	DataDir            string        `env:"LAKEVIEW_DATA_DIR" envDefault:"data"`
	CatalogBaseURL     string        `env:"LAKEVIEW_CATALOG_BASE_URL"`
	SessionSecret      string        `env:"LAKEVIEW_SESSION_SECRET"`
	SessionTTL         time.Duration `env:"LAKEVIEW_SESSION_TTL" envDefault:"12h"`
	GoogleClientID     string        `env:"LAKEVIEW_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"LAKEVIEW_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"LAKEVIEW_GOOGLE_REDIRECT_URI"`
}

// ParseConfig loads configuration from the environment and applies flag
// overrides.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.FromEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The web server address")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for workspace and session databases")
	fs.StringVar(&cfg.CatalogBaseURL, "catalog-base-url", cfg.CatalogBaseURL, "Base URL of the metadata catalog API")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.CatalogBaseURL == "" {
		return errors.New("catalog base url is required")
	}
	if c.SessionSecret == "" {
		return errors.New("session secret is required")
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURI == "" {
		return errors.New("google oauth client registration is required")
	}
	return nil
}

// Run starts the web server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	shutdownTracing, err := otel.Setup(ctx, "lakeview")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	bridge, err := persist.Open(filepath.Join(cfg.DataDir, "workspace.db"))
	if err != nil {
		return fmt.Errorf("open workspace store: %w", err)
	}
	defer func() {
		if err := bridge.Close(); err != nil {
			log.Printf("close workspace store: %v", err)
		}
	}()

	store := state.NewStore()
	store.Hydrate(bridge.Load())

	recovery := state.NewRecovery(func(reason state.Reason) {
		log.Printf("auth recovery fired reason=%s, clearing persisted workspace state", reason)
		bridge.Clear()
	})
	state.Observe(store, recovery)
	store.Subscribe(func(change state.Change) {
		if change.IsPersistedSlice() {
			bridge.Save(store.Snapshot())
		}
	})

	sessions, err := sessionsqlite.Open(filepath.Join(cfg.DataDir, "sessions.db"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Printf("close session store: %v", err)
		}
	}()
	go cleanupSessions(ctx, sessions)

	signer, err := session.NewSigner([]byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("build session signer: %w", err)
	}

	catalogClient, err := catalog.NewClient(cfg.CatalogBaseURL, &http.Client{Timeout: timeouts.CatalogRequest})
	if err != nil {
		return fmt.Errorf("build catalog client: %w", err)
	}
	googleClient, err := google.NewClient(google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
	}, nil)
	if err != nil {
		return fmt.Errorf("build google client: %w", err)
	}

	webServer, err := web.NewServer(ctx, web.Config{
		HTTPAddr:   cfg.HTTPAddr,
		Catalog:    catalogClient,
		Google:     googleClient,
		Flows:      google.NewStateStore(10 * time.Minute),
		Sessions:   sessions,
		Signer:     signer,
		SessionTTL: cfg.SessionTTL,
		Store:      store,
		Bridge:     bridge,
		Recovery:   recovery,
	})
	if err != nil {
		return fmt.Errorf("build web server: %w", err)
	}
	defer webServer.Close()

	log.Printf("serving http addr=%s catalog=%s", cfg.HTTPAddr, cfg.CatalogBaseURL)
	return webServer.ListenAndServe(ctx)
}

func cleanupSessions(ctx context.Context, sessions *sessionsqlite.Store) {
	ticker := time.NewTicker(timeouts.SessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("session cleanup: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("session cleanup removed=%d", removed)
			}
		}
	}
}
