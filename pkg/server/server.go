// Package server serves treemaps and snapshot uploads over HTTP.
//
// Routes:
//
//	GET    /                               interactive HTML page
//	GET    /treemap.svg                    interactive SVG
//	GET    /treemap.png                    static PNG of the focused level
//	GET    /api/tree                       source tree as JSON
//	GET    /api/layout                     layout export (?focus=a/b)
//	GET    /api/nodelink.svg               node-link diagram
//	GET    /api/snapshots                  list uploaded snapshots
//	POST   /api/snapshots                  upload a tree (JSON, YAML or gocloc)
//	GET    /api/snapshots/{id}             snapshot with its tree
//	DELETE /api/snapshots/{id}             remove a snapshot
//	GET    /api/snapshots/{id}/treemap.{format}
//	GET    /healthz                        status and pipeline/cache counters
//
// Render routes accept width, height, focus, seed, bars, panels, static,
// legend, title, separator, padding and round query parameters. Responses
// carry ETags and are kept in a bounded in-memory cache.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/matzehuels/slocmap/pkg/cache"
	"github.com/matzehuels/slocmap/pkg/observability"
	"github.com/matzehuels/slocmap/pkg/pipeline"
	"github.com/matzehuels/slocmap/pkg/store"
)

// Server handles HTTP requests. Create it with [New] or [Open].
type Server struct {
	cfg       Config
	runner    *pipeline.Runner
	store     store.Store
	logger    *log.Logger
	responses *expirable.LRU[string, response]
	router    chi.Router

	stats      *observability.Counters
	unregister func()
}

// New wires a server from existing components.
func New(cfg Config, runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:       cfg,
		runner:    runner,
		store:     st,
		logger:    logger,
		responses: expirable.NewLRU[string, response](cfg.LRUSize, nil, cfg.ResponseTTL),
		stats:     observability.NewCounters(),
	}
	s.unregister = observability.Register(s.stats)
	s.router = s.routes()
	return s
}

// Open builds the cache and snapshot store described by cfg and returns a
// server using them. Redis takes precedence over a cache directory; Mongo
// over the in-memory snapshot store.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Server, error) {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.Default()
	}

	front, err := cache.NewLRUCache(cfg.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	var c cache.Cache = front
	switch {
	case cfg.RedisURL != "":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL, Prefix: "slocmap:"})
		if err != nil {
			return nil, err
		}
		c = cache.NewTiered(front, rc, cfg.ResponseTTL)
		logger.Info("using redis cache")
	case cfg.CacheDir != "":
		fc, err := cache.NewFileCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		c = cache.NewTiered(front, fc, cfg.ResponseTTL)
		logger.Info("using file cache", "dir", fc.Dir())
	}

	var st store.Store = store.NewMemoryStore()
	if cfg.MongoURI != "" {
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.MongoURI})
		if err != nil {
			c.Close()
			return nil, err
		}
		st = ms
		logger.Info("using mongo snapshot store")
	}

	runner := pipeline.NewRunner(c, cache.NewScopedKeyer(cache.NewDefaultKeyer(), "srv"), logger)
	return New(cfg, runner, st, logger), nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Timeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleArtifact(pipeline.FormatHTML))
	r.Get("/treemap.svg", s.handleArtifact(pipeline.FormatSVG))
	r.Get("/treemap.png", s.handleArtifact(pipeline.FormatPNG))

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/layout", s.handleArtifact(pipeline.FormatJSON))
		r.Get("/nodelink.svg", s.handleArtifact(pipeline.FormatNodelink))

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/", s.handleCreateSnapshot)
			r.Get("/{id}", s.handleGetSnapshot)
			r.Delete("/{id}", s.handleDeleteSnapshot)
			r.Get("/{id}/treemap.{format}", s.handleSnapshotArtifact)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the runner cache and the snapshot store.
func (s *Server) Close() error {
	s.unregister()
	return errors.Join(s.runner.Close(), s.store.Close())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
