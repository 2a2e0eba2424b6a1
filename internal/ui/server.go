// Package ui serves the LeapMap web page.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/ui/notifier"
	"github.com/leapstack-labs/leapmap/internal/ui/router"
	"github.com/leapstack-labs/leapmap/internal/ui/session"
	"github.com/leapstack-labs/leapmap/internal/workspace"
	"github.com/leapstack-labs/leapmap/pkg/csvparse"
)

// DefaultSessionTTL is the session cookie lifetime.
const DefaultSessionTTL = 30 * 24 * time.Hour

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	store        *workspace.Store
	oracle       geocode.Oracle
	metrics      *metrics.Metrics
	sessionStore *sessions.CookieStore
	port         int
	watch        bool
	csvPath      string
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Store *workspace.Store
	// Oracle resolves place names. Nil disables geocoding.
	Oracle  geocode.Oracle
	Metrics *metrics.Metrics
	Port    int
	// Watch reloads CSVPath when it changes on disk.
	Watch bool
	// CSVPath is an optional file preloaded into every new session.
	CSVPath       string
	SessionSecret string
	SessionTTL    time.Duration
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		store:        cfg.Store,
		oracle:       cfg.Oracle,
		metrics:      cfg.Metrics,
		sessionStore: session.NewCookieStore(cfg.SessionSecret, ttl),
		port:         cfg.Port,
		watch:        cfg.Watch,
		csvPath:      cfg.CSVPath,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Handler builds the HTTP handler with all middleware and routes.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, s.sessionStore, s.store, s.oracle, s.notifier, s.metrics, s.logger); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s.csvPath != "" {
		if err := s.loadPreload(); err != nil {
			return err
		}
	}

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Workspace eviction loop
	eg.Go(func() error {
		s.store.Start()
		return nil
	})

	if s.watch && s.csvPath != "" {
		eg.Go(func() error {
			return s.watchPreload(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		s.store.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// loadPreload parses the preload file and hands it to the store.
func (s *Server) loadPreload() error {
	f, err := os.Open(s.csvPath)
	if err != nil {
		return fmt.Errorf("open preload file: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := csvparse.ParseReader(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.csvPath, err)
	}

	refreshed := s.store.Preload(filepath.Base(s.csvPath), table)
	s.logger.Info("preloaded csv", "file", s.csvPath, "rows", len(table.Rows), "sessions", len(refreshed))
	s.notifier.Notify(refreshed...)
	return nil
}

// watchPreload reloads the preload file whenever it is written. The parent
// directory is watched because editors often replace files on save.
func (s *Server) watchPreload(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.csvPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch preload file", "error", err)
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("preload file changed", "file", event.Name)
				if err := s.loadPreload(); err != nil {
					s.logger.Warn("preload reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
