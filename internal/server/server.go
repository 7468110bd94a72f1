// Package server assembles the HTTP API: routes, middleware chain and the
// WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/server/handler"
	"github.com/marketdesk/admind/internal/server/middleware"
	"github.com/marketdesk/admind/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// Rate limiting; disabled when RateLimit is zero or Limiter is nil.
	Limiter         domain.RateLimiter
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Intake      *handler.IntakeHandler
	Users       *handler.UserHandler
	Withdrawals *handler.WithdrawalHandler
	Analytics   *handler.AnalyticsHandler
	Hedge       *handler.HedgeHandler
	Metrics     http.Handler
}

// Server is the admin console's HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes on a ServeMux and wires the middleware chain
// (CORS -> logging -> rate limit -> auth).
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Intake review.
	mux.HandleFunc("GET /api/polymarket/intake", handlers.Intake.List)
	mux.HandleFunc("GET /api/polymarket/intake/{id}", handlers.Intake.Get)
	mux.HandleFunc("GET /api/polymarket/intake/{id}/decisions", handlers.Intake.Decisions)
	mux.HandleFunc("POST /api/polymarket/intake/approve", handlers.Intake.Approve)
	mux.HandleFunc("POST /api/polymarket/intake/reject", handlers.Intake.Reject)
	mux.HandleFunc("POST /api/polymarket/intake/bulk-approve", handlers.Intake.BulkApprove)

	// Account moderation.
	mux.HandleFunc("GET /api/admin/users", handlers.Users.List)
	mux.HandleFunc("POST /api/admin/users/{id}/ban", handlers.Users.Ban)
	mux.HandleFunc("POST /api/admin/users/{id}/unban", handlers.Users.Unban)

	// Withdrawal review.
	mux.HandleFunc("GET /api/admin/withdrawals", handlers.Withdrawals.List)
	mux.HandleFunc("POST /api/admin/withdrawals/{id}/approve", handlers.Withdrawals.Approve)
	mux.HandleFunc("POST /api/admin/withdrawals/{id}/reject", handlers.Withdrawals.Reject)

	// Analytics.
	mux.HandleFunc("GET /api/admin/analytics/finance", handlers.Analytics.Finance)

	// Hedge monitoring.
	mux.HandleFunc("GET /api/hedge/status", handlers.Hedge.Status)

	// Prometheus exposition.
	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	// WebSocket reload hints.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	if cfg.Limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(cfg.Limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. It blocks until the server errors or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests within
// the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
