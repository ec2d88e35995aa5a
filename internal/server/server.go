// Package server wires the viewer's HTTP surface: the one-screen page,
// the upload and selection actions, and the embeddable map document.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shapeview/internal/config"
	"shapeview/internal/health"
	"shapeview/internal/middleware"
	"shapeview/internal/observability"
	"shapeview/internal/session"
	"shapeview/internal/shapefile"
)

type Server struct {
	cfg    config.Config
	log    *slog.Logger
	loader *shapefile.Loader
	store  *session.Store
}

func New(cfg config.Config, log *slog.Logger, loader *shapefile.Loader, store *session.Store) *Server {
	return &Server{cfg: cfg, log: log, loader: loader, store: store}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(s.log))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/", s.observed("/", s.handleIndex))
	r.Post("/upload", s.observed("/upload", s.handleUpload))
	r.Get("/select", s.observed("/select", s.handleSelect))
	r.Get("/map", s.observed("/map", s.handleMap))

	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, loader *shapefile.Loader, store *session.Store) error {
	s := New(cfg, logger, loader, store)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) observed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}
