// Package app owns the application lifecycle: it wires dependencies, builds
// the services and background workers, and runs everything until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marketdesk/admind/internal/config"
	"github.com/marketdesk/admind/internal/hedge"
	"github.com/marketdesk/admind/internal/metrics"
	"github.com/marketdesk/admind/internal/pipeline"
	"github.com/marketdesk/admind/internal/platform/polymarket"
	"github.com/marketdesk/admind/internal/server"
	"github.com/marketdesk/admind/internal/server/handler"
	"github.com/marketdesk/admind/internal/server/ws"
	"github.com/marketdesk/admind/internal/service"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// shutdownTimeout bounds how long in-flight requests may run after SIGTERM.
const shutdownTimeout = 15 * time.Second

// App is the root application object. It owns configuration, logging and the
// cleanup functions run in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the HTTP server and background workers,
// and blocks until the context is cancelled or a worker fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("version", Version),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	m := metrics.New()

	// Services.
	intakeSvc := service.NewIntakeService(
		deps.IntakeStore, deps.DecisionStore, deps.AuditStore,
		deps.IntakeCache, deps.SignalBus, deps.LockManager, deps.Listing,
		deps.Publisher, deps.Archiver, deps.Notifier,
		m, a.logger,
	)
	userSvc := service.NewUserService(deps.UserStore, deps.AuditStore, a.logger)
	withdrawalSvc := service.NewWithdrawalService(deps.WithdrawalStore, deps.AuditStore, deps.Notifier, a.logger)
	analyticsSvc := service.NewAnalyticsService(deps.FinanceStore)

	// Background workers.
	syncer := pipeline.NewSyncer(deps.Gamma, deps.IntakeStore, deps.SignalBus, m, a.logger,
		a.cfg.Polymarket.SyncInterval.Duration)
	monitor := hedge.NewMonitor(deps.HedgeStore, deps.SignalBus, deps.Notifier, m, a.logger,
		a.cfg.Hedge.MinCoverage, a.cfg.Hedge.CheckInterval.Duration)
	hub := ws.NewHub(deps.SignalBus, a.logger)

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		Limiter:         deps.RateLimiter,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, server.Handlers{
		Health:      handler.NewHealthHandler(Version),
		Intake:      handler.NewIntakeHandler(intakeSvc, a.logger),
		Users:       handler.NewUserHandler(userSvc, a.logger),
		Withdrawals: handler.NewWithdrawalHandler(withdrawalSvc, a.logger),
		Analytics:   handler.NewAnalyticsHandler(analyticsSvc, a.logger),
		Hedge:       handler.NewHedgeHandler(monitor),
		Metrics:     m.Handler(),
	}, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		return syncer.Run(ctx)
	})
	if a.cfg.Hedge.Enabled {
		g.Go(func() error {
			return monitor.Run(ctx)
		})
	}
	if a.cfg.Polymarket.PushEnabled {
		push := polymarket.NewPushClient(pushURL(a.cfg.Polymarket.WsHost), func(kind string) {
			syncer.Trigger()
		}, a.logger)
		g.Go(func() error {
			push.Run(ctx)
			return nil
		})
	}

	err = g.Wait()
	if err == context.Canceled {
		return context.Canceled
	}
	return err
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// pushURL appends the market channel path when the configured host lacks one.
func pushURL(wsHost string) string {
	if strings.Contains(wsHost, "/ws/") {
		return wsHost
	}
	return strings.TrimRight(wsHost, "/") + "/ws/market"
}
