package dev

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wayfind-dev/wayfind/internal/config"
	"github.com/wayfind-dev/wayfind/pkg/routegen"
)

// ServerOptions configures the watch server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Dir is the project root the config paths resolve against.
	Dir string

	// Logger receives watch loop events. Defaults to slog.Default().
	Logger *slog.Logger

	// OnGenerate is called after each regeneration attempt.
	OnGenerate func(wrote bool, err error)
}

// Server runs the wayfind watch loop: it polls the routes directory,
// regenerates the route table on change, and tells connected clients
// to reload over the websocket endpoint.
type Server struct {
	options    ServerOptions
	log        *slog.Logger
	session    *routegen.Session
	routesDir  string
	watcher    *Watcher
	hub        *ReloadHub
	changeCh   chan []Change
	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// NewServer creates a watch server from the project configuration.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	log := options.Logger
	if log == nil {
		log = slog.Default()
	}

	routesDir := filepath.Join(options.Dir, cfg.Routes)
	gen := cfg.GenerateConfig()
	gen.OutputPath = filepath.Join(options.Dir, gen.OutputPath)

	session := &routegen.Session{
		Dir:      routesDir,
		Scan:     cfg.ScanConfig(),
		Generate: gen,
	}

	watcher := NewWatcher(WatcherConfig{
		Dir:          routesDir,
		IgnorePrefix: cfg.IgnorePrefix,
		Interval:     cfg.DebounceInterval(),
	})

	return &Server{
		options:   options,
		log:       log,
		session:   session,
		routesDir: routesDir,
		watcher:   watcher,
		hub:       NewReloadHub(),
	}
}

// Handler returns the dev server's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/__wayfind/reload", s.hub.ServeHTTP)
	r.Get("/__wayfind/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

// Start regenerates once, then serves and watches until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	s.regenerate()

	s.changeCh = make(chan []Change, 16)
	s.watcher.OnChange(func(changes []Change) {
		select {
		case s.changeCh <- changes:
		default:
		}
	})

	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	s.httpServer = &http.Server{
		Addr:    s.options.Config.Watch.Addr,
		Handler: s.Handler(),
	}

	s.log.Info("watch server running",
		"addr", s.options.Config.Watch.Addr,
		"routes", s.routesDir)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

func (s *Server) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// processChanges serializes change handling and coalesces bursts so a
// save that touches several files triggers one regeneration.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case changes := <-s.changeCh:
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next...)
				default:
					draining = false
				}
			}
			for _, c := range changes {
				s.log.Debug("changed", "path", c.Path, "deleted", c.Deleted)
			}
			s.regenerate()
		}
	}
}

func (s *Server) regenerate() {
	wrote, err := s.session.Run()

	if s.options.OnGenerate != nil {
		s.options.OnGenerate(wrote, err)
	}

	switch {
	case err != nil:
		s.log.Error("route generation failed", "error", err)
		s.hub.NotifyError(err.Error())
	case wrote:
		s.log.Info("regenerated routes", "clients", s.hub.ClientCount())
		s.hub.NotifyReload()
	default:
		s.log.Debug("routes unchanged")
	}
}
