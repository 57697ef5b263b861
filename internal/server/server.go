// Package server exposes the analysis engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ppiankov/inclusify/internal/history"
	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/pipeline"
)

// Server is the HTTP API
type Server struct {
	cfg      model.ServerConfig
	pipeline *pipeline.Pipeline
	history  *history.Store // nil when history is disabled
	logger   logging.Logger
	metrics  *Metrics
	router   *gin.Engine
	srv      *http.Server
}

// New builds the server and its routes
func New(p *pipeline.Pipeline, store *history.Store, cfg model.ServerConfig, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = model.DefaultConfig().Server.MaxTextBytes
	}

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		history:  store,
		logger:   logger.Named("server"),
		metrics:  NewMetrics(),
	}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger, s.metrics))

	limit := rate.Inf
	if s.cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(s.cfg.RequestsPerSecond)
	}
	burst := s.cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	r.Use(rateLimit(rate.NewLimiter(limit, burst), s.metrics))

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/analyze", s.analyze)
	v1.GET("/rules", s.rules)
	v1.GET("/stats", s.stats)

	return r
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
