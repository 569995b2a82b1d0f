// Package api provides the HTTP API server for the Minnal extension tooling.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oszuidwest/minnal/internal/config"
	"github.com/oszuidwest/minnal/internal/metrics"
	"github.com/oszuidwest/minnal/internal/service"
)

// Server represents the HTTP API server.
// It reports the extension version and manages the installation of minnal_version().
type Server struct {
	service *service.MinnalService
	config  *config.Config

	mu       sync.Mutex
	server   *http.Server
	shutdown bool
}

// New creates a new Server instance with the provided service and configuration.
func New(svc *service.MinnalService, cfg *config.Config) *Server {
	return &Server{
		service: svc,
		config:  cfg,
	}
}

// Router builds the chi router with all middleware and routes.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)
	router.Use(instrument)
	router.Use(middleware.Timeout(s.config.API.GetRequestTimeout()))

	// Global 404 handler - returns JSON for consistency
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		respondError(w, http.StatusNotFound, "Endpoint niet gevonden")
	})

	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json; charset=utf-8"))

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusNotFound, "Endpoint niet gevonden")
		})

		// No auth required
		r.Get("/version", s.handleVersion)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/extension", func(r chi.Router) {
				r.Get("/", s.handleStatus)
				r.Post("/", s.handleInstall)
				r.Delete("/", s.handleUninstall)
			})
		})
	})

	return router
}

// Start initializes and starts the HTTP server on the specified port.
// Returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(port string) error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
// A server that has not been started yet will refuse to start afterwards.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.API.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")

		if !s.isValidAPIKey(apiKey) {
			slog.Warn("Authenticatie mislukt",
				"reason", "ongeldige_api_key",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr)

			respondError(w, http.StatusUnauthorized, "Niet geautoriseerd: ongeldige of ontbrekende API-sleutel")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) isValidAPIKey(key string) bool {
	if key == "" {
		return false
	}

	for _, validKey := range s.config.API.Keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return true
		}
	}
	return false
}

// instrument records request counts and durations per route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.RecordHTTPRequest(r.Method, route, ww.Status(), time.Since(start))
	})
}
