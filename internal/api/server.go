// Package api serves the editing engine over HTTP.
//
// Each map being edited lives in a session keyed by a random UUID. Requests
// against one session are serialized with the session's mutex; different
// sessions are edited concurrently. Errors are returned as JSON objects
// {"code": ..., "message": ...} with the code taken from package errors.
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SonghaiFan/metroflow/pkg/buildinfo"
	"github.com/SonghaiFan/metroflow/pkg/cache"
	"github.com/SonghaiFan/metroflow/pkg/editor"
	"github.com/SonghaiFan/metroflow/pkg/pipeline"
	"github.com/SonghaiFan/metroflow/pkg/store"
)

// Defaults for [Config].
const (
	DefaultSessionTTL = 2 * time.Hour
	DefaultMaxBody    = 8 << 20
)

// Config configures a [Server].
type Config struct {
	// Cache holds rendered artifacts. Nil disables caching.
	Cache cache.Cache

	// Store persists named snapshots. Nil disables the store routes.
	Store store.Store

	// Editor options applied to every new session.
	Editor []editor.Option

	// Render holds the defaults for render requests.
	Render pipeline.Options

	// SessionTTL is how long an untouched session is kept.
	SessionTTL time.Duration

	// MaxBody limits request bodies in bytes.
	MaxBody int64

	Logger *log.Logger
}

// Server is the HTTP editing API.
type Server struct {
	sessions *sessions
	runner   *pipeline.Runner
	store    store.Store
	editor   []editor.Option
	render   pipeline.Options
	maxBody  int64
	logger   *log.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api")
	return &Server{
		sessions: newSessions(cfg.SessionTTL),
		runner:   pipeline.NewRunner(cfg.Cache, keyer, cfg.Logger),
		store:    cfg.Store,
		editor:   append([]editor.Option{editor.WithLogger(cfg.Logger)}, cfg.Editor...),
		render:   cfg.Render,
		maxBody:  cfg.MaxBody,
		logger:   cfg.Logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)

	r.Route("/maps", func(r chi.Router) {
		r.Post("/", s.handleCreateMap)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetMap)
			r.Delete("/", s.handleDeleteMap)
			r.Post("/tracks", s.handleCreateTrack)
			r.Post("/stations", s.handleCreateStation)
			r.Patch("/stations/{sid}", s.handleUpdateStation)
			r.Delete("/stations/{sid}", s.handleDeleteStation)
			r.Post("/segments", s.handleCreateSegment)
			r.Post("/connections", s.handleCreateConnection)
			r.Delete("/connections/{cid}", s.handleDeleteConnection)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Get("/render.{format}", s.handleRender)
			r.Put("/store/{name}", s.handleSaveToStore)
		})
	})

	r.Get("/store", s.handleListStore)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Idle sessions are swept once a minute.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "version", buildinfo.Get().Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.expire(now); n > 0 {
				s.logger.Debug("expired sessions", "count", n)
			}
		}
	}
}
