// Package server provides the HTTP API for the portal.
//
// The server exposes the three service request endpoints plus the option
// catalog, a health check, and optionally a Prometheus scrape endpoint.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /api/options - Select options for the service forms, keyed by kind
//   - POST /api/requests/datacenter - Submit a data center deployment request
//   - POST /api/requests/pop - Submit a point-of-presence deployment request
//   - POST /api/requests/device-connection - Submit a device connection request
//   - GET /metrics - Prometheus scrape endpoint (when a metrics handler is set)
//
// # Example
//
//	srv := server.New(cfg.Server, svc, catalog, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/franc-net/portal/config"
	"github.com/franc-net/portal/options"
	"github.com/franc-net/portal/server/handlers"
	"github.com/franc-net/portal/services"
)

// Server is the portal HTTP server.
type Server struct {
	cfg            config.ServerConfig
	logger         *slog.Logger
	service        *services.Service
	catalog        *options.Catalog
	metricsHandler http.Handler
	httpServer     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With("component", "server")
	}
}

// WithMetricsHandler exposes the given handler at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// New creates a Server serving the given service and option catalog.
func New(cfg config.ServerConfig, service *services.Service, catalog *options.Catalog, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  slog.Default().With("component", "server"),
		service: service,
		catalog: catalog,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.cfg.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/options", handlers.NewOptionsHandler(s.catalog))
	mux.Handle("POST /api/requests/datacenter", handlers.NewDataCenterHandler(s.service, s.catalog))
	mux.Handle("POST /api/requests/pop", handlers.NewPopHandler(s.service, s.catalog))
	mux.Handle("POST /api/requests/device-connection", handlers.NewDeviceConnectionHandler(s.service, s.catalog))

	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
}
