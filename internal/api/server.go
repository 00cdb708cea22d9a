// Package api exposes the liquidation variants over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rgehrsitz/mesada/internal/calculation"
	"github.com/rgehrsitz/mesada/internal/compare"
	"github.com/rgehrsitz/mesada/internal/config"
	"github.com/rgehrsitz/mesada/internal/liquidation"
	"github.com/rgehrsitz/mesada/internal/store"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Config tunes the HTTP surface
type Config struct {
	RateLimit      int           // requests per RateWindow per client IP; 0 disables limiting
	RateWindow     time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns the limits used by `mesada serve`
func DefaultConfig() Config {
	return Config{
		RateLimit:      60,
		RateWindow:     time.Minute,
		RequestTimeout: 30 * time.Second,
	}
}

// Server routes requests to the store and the liquidation registry
type Server struct {
	store    store.Store
	engine   *calculation.Engine
	registry *liquidation.Registry
	compare  *compare.CompareEngine
	parser   *config.InputParser
	logger   *zap.Logger
	metrics  *Metrics
	cfg      Config
	handler  http.Handler
}

// NewServer builds a server over st. A nil logger discards logs.
func NewServer(st store.Store, engine *calculation.Engine, logger *zap.Logger, cfg Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := liquidation.NewRegistry()
	s := &Server{
		store:    st,
		engine:   engine,
		registry: registry,
		compare:  compare.NewCompareEngine(engine, registry),
		parser:   config.NewInputParser(),
		logger:   logger,
		metrics:  NewMetrics(),
		cfg:      cfg,
	}
	s.handler = s.routes()
	return s
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(ZapLoggerMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(secureMiddleware.Handler)
	r.Use(s.metrics.Middleware)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/indices", s.listIndices)
		r.Get("/variantes", s.listVariants)

		r.Group(func(r chi.Router) {
			if s.cfg.RateLimit > 0 {
				window := s.cfg.RateWindow
				if window <= 0 {
					window = time.Minute
				}
				r.Use(httprate.Limit(s.cfg.RateLimit, window, httprate.WithKeyFuncs(httprate.KeyByIP)))
			}
			r.Get("/pensionados/{id}", s.getCase)
			r.Put("/pensionados/{id}", s.putCase)
			r.Post("/pensionados/{id}/liquidaciones/{variant}", s.liquidate)
			r.Post("/pensionados/{id}/comparaciones", s.compareCase)
		})
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
