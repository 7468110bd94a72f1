// Package service implements the admin backend's use cases on top of the
// domain interfaces. Services own orchestration and transaction ordering;
// handlers stay thin.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/intake"
	"github.com/marketdesk/admind/internal/metrics"
)

// bulkLockKey serializes bulk approvals platform-wide. One batch at a time
// keeps the listing service load bounded and progress reporting meaningful.
const bulkLockKey = "bulk-approve"

// bulkLockTTL caps how long a crashed batch can block the next one.
const bulkLockTTL = 10 * time.Minute

// ListingSubmitter posts listing decisions to the trading core.
type ListingSubmitter interface {
	SubmitApproval(ctx context.Context, payload domain.ApprovalPayload) error
	SubmitRejection(ctx context.Context, polymarketID, reason string) error
}

// IntakeNotifier receives operator-facing decision announcements.
type IntakeNotifier interface {
	MarketApproved(ctx context.Context, m domain.IntakeMarket, decidedBy string)
	MarketRejected(ctx context.Context, m domain.IntakeMarket, reason, decidedBy string)
	BulkApproval(ctx context.Context, succeeded, total int, decidedBy string)
}

// IntakeService reviews externally-sourced candidate markets: listing them
// for the console, approving them into the trading core, and rejecting them.
type IntakeService struct {
	store     domain.IntakeStore
	decisions domain.DecisionStore
	audit     domain.AuditStore
	cache     domain.IntakeCache
	bus       domain.SignalBus
	locks     domain.LockManager
	listing   ListingSubmitter
	publisher domain.DecisionPublisher
	archiver  domain.DecisionArchiver
	notifier  IntakeNotifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewIntakeService creates an IntakeService with all required dependencies.
// publisher, archiver and notifier may be nil when the corresponding sink is
// not configured.
func NewIntakeService(
	store domain.IntakeStore,
	decisions domain.DecisionStore,
	audit domain.AuditStore,
	cache domain.IntakeCache,
	bus domain.SignalBus,
	locks domain.LockManager,
	listing ListingSubmitter,
	publisher domain.DecisionPublisher,
	archiver domain.DecisionArchiver,
	notifier IntakeNotifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *IntakeService {
	return &IntakeService{
		store:     store,
		decisions: decisions,
		audit:     audit,
		cache:     cache,
		bus:       bus,
		locks:     locks,
		listing:   listing,
		publisher: publisher,
		archiver:  archiver,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With(slog.String("component", "intake_service")),
	}
}

// List returns a page of intake records plus the total count for the filter.
// Reloading is idempotent: listing never mutates review state.
func (s *IntakeService) List(ctx context.Context, filter domain.IntakeFilter, opts domain.ListOpts) ([]domain.IntakeMarket, int64, error) {
	markets, err := s.store.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("intake_service: list: %w", err)
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("intake_service: count: %w", err)
	}
	return markets, total, nil
}

// Get retrieves one intake record, cache first.
func (s *IntakeService) Get(ctx context.Context, polymarketID string) (domain.IntakeMarket, error) {
	if m, err := s.cache.Get(ctx, polymarketID); err == nil {
		return m, nil
	}

	m, err := s.store.GetByID(ctx, polymarketID)
	if err != nil {
		return domain.IntakeMarket{}, fmt.Errorf("intake_service: get %q: %w", polymarketID, err)
	}

	if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
		s.logger.WarnContext(ctx, "cache set failed",
			slog.String("polymarket_id", polymarketID),
			slog.String("error", cacheErr.Error()),
		)
	}
	return m, nil
}

// Decisions returns the audit trail for one market.
func (s *IntakeService) Decisions(ctx context.Context, polymarketID string) ([]domain.IntakeDecision, error) {
	ds, err := s.decisions.ListByMarket(ctx, polymarketID)
	if err != nil {
		return nil, fmt.Errorf("intake_service: decisions %q: %w", polymarketID, err)
	}
	return ds, nil
}

// Approve runs the full approval flow for one market: build the listing
// payload (resolving outcomes to tokens), submit it to the trading core, then
// persist the transition. Unresolvable outcomes are warnings, not errors.
func (s *IntakeService) Approve(ctx context.Context, polymarketID string, opts intake.ApproveOptions) (domain.ApprovalPayload, []intake.ResolutionWarning, error) {
	m, err := s.store.GetByID(ctx, polymarketID)
	if err != nil {
		return domain.ApprovalPayload{}, nil, fmt.Errorf("intake_service: approve %q: %w", polymarketID, err)
	}
	if m.Status.Decided() {
		return domain.ApprovalPayload{}, nil, fmt.Errorf("intake_service: approve %q: %w", polymarketID, domain.ErrAlreadyDecided)
	}

	payload, warnings := intake.BuildApprovalPayload(m, opts)
	for _, w := range warnings {
		s.metrics.ResolutionGaps.Inc()
		s.logger.WarnContext(ctx, "outcome unresolved",
			slog.String("polymarket_id", polymarketID),
			slog.Int("outcome_index", w.Index),
			slog.String("outcome_name", w.Name),
		)
	}

	// Submit to the trading core before flipping local state, so a listing
	// failure leaves the record pending and retryable.
	start := time.Now()
	err = s.listing.SubmitApproval(ctx, payload)
	s.observeListing("approve", start, err)
	if err != nil {
		return domain.ApprovalPayload{}, warnings, fmt.Errorf("intake_service: approve %q: %w", polymarketID, err)
	}

	if err := s.store.MarkApproved(ctx, polymarketID, payload.InternalEventID, payload.Outcomes); err != nil {
		// Listed but not recorded locally. Surface loudly; the sync pipeline
		// will not resurrect the record because the core now owns it.
		s.logger.ErrorContext(ctx, "mark approved failed after listing",
			slog.String("polymarket_id", polymarketID),
			slog.String("internal_event_id", payload.InternalEventID),
			slog.String("error", err.Error()),
		)
		return domain.ApprovalPayload{}, warnings, fmt.Errorf("intake_service: approve %q: %w", polymarketID, err)
	}

	s.recordDecision(ctx, domain.IntakeDecision{
		ID:              uuid.NewString(),
		PolymarketID:    polymarketID,
		Action:          domain.DecisionApprove,
		InternalEventID: payload.InternalEventID,
		Mappings:        payload.Outcomes,
		DecidedBy:       opts.DecidedBy,
		DecidedAt:       time.Now().UTC(),
	})

	s.metrics.Approvals.Inc()
	s.afterDecision(ctx, polymarketID)
	if s.notifier != nil {
		m.InternalEventID = payload.InternalEventID
		s.notifier.MarketApproved(ctx, m, opts.DecidedBy)
	}

	s.logger.InfoContext(ctx, "market approved",
		slog.String("polymarket_id", polymarketID),
		slog.String("internal_event_id", payload.InternalEventID),
		slog.Int("outcomes", len(payload.Outcomes)),
		slog.Int("unresolved", len(warnings)),
	)
	return payload, warnings, nil
}

// Reject marks a pending market rejected and informs the trading core.
func (s *IntakeService) Reject(ctx context.Context, polymarketID, reason, decidedBy string) error {
	m, err := s.store.GetByID(ctx, polymarketID)
	if err != nil {
		return fmt.Errorf("intake_service: reject %q: %w", polymarketID, err)
	}
	if m.Status.Decided() {
		return fmt.Errorf("intake_service: reject %q: %w", polymarketID, domain.ErrAlreadyDecided)
	}

	start := time.Now()
	err = s.listing.SubmitRejection(ctx, polymarketID, reason)
	s.observeListing("reject", start, err)
	if err != nil {
		return fmt.Errorf("intake_service: reject %q: %w", polymarketID, err)
	}

	if err := s.store.MarkRejected(ctx, polymarketID, reason); err != nil {
		return fmt.Errorf("intake_service: reject %q: %w", polymarketID, err)
	}

	s.recordDecision(ctx, domain.IntakeDecision{
		ID:           uuid.NewString(),
		PolymarketID: polymarketID,
		Action:       domain.DecisionReject,
		Reason:       reason,
		DecidedBy:    decidedBy,
		DecidedAt:    time.Now().UTC(),
	})

	s.metrics.Rejections.Inc()
	s.afterDecision(ctx, polymarketID)
	if s.notifier != nil {
		s.notifier.MarketRejected(ctx, m, reason, decidedBy)
	}

	s.logger.InfoContext(ctx, "market rejected",
		slog.String("polymarket_id", polymarketID),
		slog.String("reason", reason),
	)
	return nil
}

// BulkApprove approves the given markets strictly sequentially, in order. A
// distributed lock ensures only one batch runs at a time; callers competing
// for the lock receive ErrLockHeld. Individual failures are recorded per item
// and never abort the batch.
func (s *IntakeService) BulkApprove(ctx context.Context, polymarketIDs []string, decidedBy string, progress intake.ProgressFunc) (intake.BulkResult, error) {
	if len(polymarketIDs) == 0 {
		return intake.BulkResult{}, nil
	}

	unlock, err := s.locks.Acquire(ctx, bulkLockKey, bulkLockTTL)
	if err != nil {
		return intake.BulkResult{}, fmt.Errorf("intake_service: bulk approve: %w", err)
	}
	defer unlock()

	s.metrics.BulkRuns.Inc()

	result := intake.RunBulk(ctx, polymarketIDs, func(ctx context.Context, id string) error {
		_, _, err := s.Approve(ctx, id, intake.ApproveOptions{DecidedBy: decidedBy})
		return err
	}, progress)

	failed := result.Total() - result.Succeeded()
	for i := 0; i < failed; i++ {
		s.metrics.BulkFailures.Inc()
	}
	if s.notifier != nil {
		s.notifier.BulkApproval(ctx, result.Succeeded(), result.Total(), decidedBy)
	}

	s.logger.InfoContext(ctx, "bulk approval finished",
		slog.Int("total", result.Total()),
		slog.Int("succeeded", result.Succeeded()),
	)
	return result, nil
}

// recordDecision persists the audit record and fans it out to the archive and
// the event stream. Only the database write is authoritative; sink failures
// are logged and swallowed.
func (s *IntakeService) recordDecision(ctx context.Context, d domain.IntakeDecision) {
	if err := s.decisions.Insert(ctx, d); err != nil {
		s.logger.ErrorContext(ctx, "decision insert failed",
			slog.String("polymarket_id", d.PolymarketID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.audit.Log(ctx, "intake."+string(d.Action), map[string]any{
		"polymarketId":    d.PolymarketID,
		"internalEventId": d.InternalEventID,
		"decidedBy":       d.DecidedBy,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveDecision(ctx, d); err != nil {
			s.logger.WarnContext(ctx, "decision archive failed",
				slog.String("polymarket_id", d.PolymarketID),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDecision(ctx, d); err != nil {
			s.logger.WarnContext(ctx, "decision publish failed",
				slog.String("polymarket_id", d.PolymarketID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// afterDecision invalidates the cached record and nudges connected consoles
// to reload the intake list.
func (s *IntakeService) afterDecision(ctx context.Context, polymarketID string) {
	if err := s.cache.Invalidate(ctx, polymarketID); err != nil {
		s.logger.WarnContext(ctx, "cache invalidate failed",
			slog.String("polymarket_id", polymarketID),
			slog.String("error", err.Error()),
		)
	}

	signal, _ := json.Marshal(map[string]string{
		"type":         "intake.reload",
		"polymarketId": polymarketID,
	})
	if err := s.bus.Publish(ctx, domain.ChannelIntake, signal); err != nil {
		s.logger.WarnContext(ctx, "reload signal failed", slog.String("error", err.Error()))
	}
}

func (s *IntakeService) observeListing(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.ListingLatency.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// IsConflict reports whether err represents an already-decided record.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrAlreadyDecided)
}
