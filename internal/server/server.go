// Package server exposes snapshots and history analysis over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/thebtf/worklog/internal/analyzer"
	"github.com/thebtf/worklog/internal/format"
	"github.com/thebtf/worklog/internal/history"
	"github.com/thebtf/worklog/internal/snapshot"
)

// Options configures a Server. Snapshots is required; History may be nil.
type Options struct {
	Version   string
	Snapshots *snapshot.Store
	History   *history.Store
	Analyzer  *analyzer.Analyzer
	Renderer  format.Renderer
	// Threshold is used when a request does not pass ?threshold=.
	Threshold float64
}

// Server serves the worklog HTTP API.
type Server struct {
	version   string
	snapshots *snapshot.Store
	history   *history.Store
	analyzer  *analyzer.Analyzer
	renderer  format.Renderer
	threshold float64
	markdown  goldmark.Markdown

	router    chi.Router
	ready     atomic.Bool
	startTime time.Time
}

// New builds the server and its routes. The server reports ready immediately.
func New(opts Options) *Server {
	a := opts.Analyzer
	if a == nil {
		a = analyzer.New(nil)
	}

	s := &Server{
		version:   opts.Version,
		snapshots: opts.Snapshots,
		history:   opts.History,
		analyzer:  a,
		renderer:  opts.Renderer,
		threshold: opts.Threshold,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}
	s.setupRoutes()
	s.ready.Store(true)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)
		r.Get("/api/snapshots/{period}", s.handleListSnapshots)
		r.Get("/api/snapshots/{period}/{key}", s.handleGetSnapshot)
		r.Get("/snapshots/{period}/{key}", s.handleSnapshotHTML)
		r.Get("/api/history/analysis", s.handleHistoryAnalysis)
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("version", s.version).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeError(w, http.StatusServiceUnavailable, "service not ready")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
