// Package server exposes the aggregated data over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/btcnav/btcnav/internal/cachestore"
	"github.com/btcnav/btcnav/internal/config"
	"github.com/btcnav/btcnav/internal/observ"
	"github.com/btcnav/btcnav/internal/providers"
)

// Providers bundles the per-domain fallback chains, in priority order
type Providers struct {
	Price            []providers.PriceProvider
	Quotes           []providers.QuoteProvider
	CompanyDiscovery []providers.DiscoveryProvider
	ETFDiscovery     []providers.DiscoveryProvider
	Registry         *providers.SeedRegistry
}

// Server is the HTTP API server
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	store      cachestore.Store
	providers  Providers
	router     *mux.Router
	httpServer *http.Server
}

// New creates the API server and wires its routes
func New(cfg *config.Config, logger *logrus.Logger, store cachestore.Store, p Providers) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		providers: p,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/price", s.handlePrice).Methods(http.MethodGet)
	api.HandleFunc("/companies", s.handleCompanies).Methods(http.MethodGet)
	api.HandleFunc("/etfs", s.handleETFs).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observ.Handler()).Methods(http.MethodGet)
}

// Handler returns the routed handler with CORS applied, mainly for tests
func (s *Server) Handler() http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.router)
}

// Start runs the HTTP server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"price_providers":     len(s.providers.Price),
		"quote_providers":     len(s.providers.Quotes),
		"company_discoverers": len(s.providers.CompanyDiscovery),
		"etf_discoverers":     len(s.providers.ETFDiscovery),
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)

		observ.RecordDuration("http_request", duration, map[string]string{"path": r.URL.Path})
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": duration.String(),
			"remote":   r.RemoteAddr,
		}).Debug("request handled")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithField("panic", rec).Error("handler panicked")
				writeServiceUnavailable(w, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// clearRequested reports whether the request forces a cache bypass
func clearRequested(r *http.Request) bool {
	v := r.URL.Query().Get("clear_cache")
	return v == "1" || v == "true"
}
