// Package hedge watches the platform's hedge book. Every listed market should
// carry offsetting size on the external venue; the monitor flags positions
// whose coverage ratio drops below the configured floor.
package hedge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/metrics"
)

// AlertNotifier receives coverage alerts for operator channels.
type AlertNotifier interface {
	HedgeAlert(ctx context.Context, a domain.HedgeAlert)
}

// Monitor periodically scans hedge positions and raises alerts for
// under-covered markets. The latest scan is kept in memory and served to the
// console via Status.
type Monitor struct {
	store       domain.HedgeStore
	bus         domain.SignalBus
	notifier    AlertNotifier
	metrics     *metrics.Metrics
	logger      *slog.Logger
	minCoverage float64
	interval    time.Duration

	mu      sync.RWMutex
	status  domain.HedgeStatus
	alerted map[string]bool // markets already alerted, reset when they recover
}

// NewMonitor creates a Monitor. minCoverage is the coverage floor (e.g. 0.8);
// interval is the scan period. notifier may be nil.
func NewMonitor(
	store domain.HedgeStore,
	bus domain.SignalBus,
	notifier AlertNotifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	minCoverage float64,
	interval time.Duration,
) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		store:       store,
		bus:         bus,
		notifier:    notifier,
		metrics:     m,
		logger:      logger.With(slog.String("component", "hedge_monitor")),
		minCoverage: minCoverage,
		interval:    interval,
		alerted:     make(map[string]bool),
	}
}

// Run scans on the configured interval until ctx is cancelled. An immediate
// first scan runs before the ticker starts.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Scan(ctx); err != nil {
		m.logger.ErrorContext(ctx, "initial scan failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.Scan(ctx); err != nil {
				m.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Scan reloads all positions, recomputes coverage and raises alerts for
// markets that crossed below the floor since the last scan.
func (m *Monitor) Scan(ctx context.Context) error {
	positions, err := m.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("hedge: list positions: %w", err)
	}

	now := time.Now().UTC()
	status := domain.HedgeStatus{
		Positions:   positions,
		MinCoverage: m.minCoverage,
		CheckedAt:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range positions {
		coverage := p.Coverage()
		m.metrics.HedgeCoverage.WithLabelValues(p.PolymarketID).Set(coverage)

		if coverage >= m.minCoverage {
			delete(m.alerted, p.PolymarketID)
			continue
		}

		alert := domain.HedgeAlert{
			InternalEventID: p.InternalEventID,
			PolymarketID:    p.PolymarketID,
			Coverage:        coverage,
			Threshold:       m.minCoverage,
			RaisedAt:        now,
		}
		status.Alerts = append(status.Alerts, alert)

		// Alert once per excursion below the floor, not every tick.
		if m.alerted[p.PolymarketID] {
			continue
		}
		m.alerted[p.PolymarketID] = true
		m.metrics.HedgeAlerts.Inc()
		m.raise(ctx, alert)
	}

	m.status = status
	return nil
}

// Status returns the most recent scan snapshot.
func (m *Monitor) Status() domain.HedgeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) raise(ctx context.Context, a domain.HedgeAlert) {
	m.logger.WarnContext(ctx, "coverage below threshold",
		slog.String("polymarket_id", a.PolymarketID),
		slog.Float64("coverage", a.Coverage),
		slog.Float64("threshold", a.Threshold),
	)

	payload, _ := json.Marshal(a)
	if err := m.bus.Publish(ctx, domain.ChannelHedge, payload); err != nil {
		m.logger.WarnContext(ctx, "alert signal failed", slog.String("error", err.Error()))
	}
	if m.notifier != nil {
		m.notifier.HedgeAlert(ctx, a)
	}
}
