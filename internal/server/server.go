// Package server exposes document analysis over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/notepeel/internal/config"
	"github.com/MeKo-Tech/notepeel/internal/profile"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	router         chi.Router
	defaultProfile *profile.Profile
	corsOrigin     string
	maxUploadBytes int64
	timeout        time.Duration
	rateLimiter    *RateLimiter
}

// NewServer creates a server that analyses with defaultProfile unless a
// request names another registered profile. A nil defaultProfile selects the
// registry default.
func NewServer(cfg config.ServerConfig, defaultProfile *profile.Profile) *Server {
	if defaultProfile == nil {
		defaultProfile = profile.MustLookup(profile.Default)
	}

	s := &Server{
		defaultProfile: defaultProfile,
		corsOrigin:     cfg.CORSOrigin,
		maxUploadBytes: int64(cfg.MaxUploadMB) * 1024 * 1024,
		timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
	}
	if rl := cfg.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(ensureRequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(s.corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", s.healthHandler)
	r.Get("/profiles", s.profilesHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Get("/ws/analyze", s.analyzeWebSocketHandler)
		r.Group(func(r chi.Router) {
			if s.timeout > 0 {
				r.Use(middleware.Timeout(s.timeout))
			}
			r.Post("/analyze", s.analyzeHandler)
		})
	})

	s.router = r
}

// ListenAndServe serves on host:port until ctx is cancelled, then shuts down
// gracefully, waiting up to shutdownTimeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "timeout_sec", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-errCh
	return nil
}
