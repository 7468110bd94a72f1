// Package pipeline feeds the intake queue: a periodic pull from the Gamma API
// discovers new candidate markets, and push events from the CLOB WebSocket
// trigger an out-of-band refresh. Decided records are never overwritten by
// the feed.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/metrics"
)

// pageSize is the Gamma pagination window per request.
const pageSize = 100

// maxPages bounds one sync pass so a hung upstream cannot spin forever.
const maxPages = 50

// CandidateSource lists open external markets as intake candidates.
type CandidateSource interface {
	ListCandidates(ctx context.Context, limit, offset int) ([]domain.IntakeMarket, error)
}

// Syncer runs the candidate sync loop.
type Syncer struct {
	source   CandidateSource
	store    domain.IntakeStore
	bus      domain.SignalBus
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
	trigger  chan struct{}
}

// NewSyncer creates a Syncer that pulls every interval.
func NewSyncer(
	source CandidateSource,
	store domain.IntakeStore,
	bus domain.SignalBus,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *Syncer {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Syncer{
		source:   source,
		store:    store,
		bus:      bus,
		metrics:  m,
		logger:   logger.With(slog.String("component", "intake_sync")),
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an out-of-band sync pass. It never blocks; while a request
// is already queued further triggers coalesce into it.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run syncs immediately, then on every tick or trigger until ctx is
// cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		s.logger.ErrorContext(ctx, "initial sync failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-s.trigger:
		}
		if err := s.Sync(ctx); err != nil {
			s.logger.ErrorContext(ctx, "sync failed", slog.String("error", err.Error()))
		}
	}
}

// Sync pulls every open market from the source and upserts the batch. The
// store only updates records still pending, so admin decisions survive feed
// churn. Connected consoles are told to reload when anything was written.
func (s *Syncer) Sync(ctx context.Context) error {
	var upserted int

	for page := 0; page < maxPages; page++ {
		candidates, err := s.source.ListCandidates(ctx, pageSize, page*pageSize)
		if err != nil {
			return fmt.Errorf("pipeline: list candidates (page %d): %w", page, err)
		}
		if len(candidates) == 0 {
			break
		}

		if err := s.store.UpsertBatch(ctx, candidates); err != nil {
			return fmt.Errorf("pipeline: upsert batch (page %d): %w", page, err)
		}
		upserted += len(candidates)
		s.metrics.SyncUpserted.Add(float64(len(candidates)))

		if len(candidates) < pageSize {
			break
		}
	}

	s.metrics.SyncRuns.Inc()
	s.logger.InfoContext(ctx, "sync pass complete", slog.Int("upserted", upserted))

	if upserted > 0 {
		signal, _ := json.Marshal(map[string]string{"type": "intake.reload"})
		if err := s.bus.Publish(ctx, domain.ChannelIntake, signal); err != nil {
			s.logger.WarnContext(ctx, "reload signal failed", slog.String("error", err.Error()))
		}
	}
	return nil
}
