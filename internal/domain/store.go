package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// IntakeStore persists intake candidate markets and their decisions.
type IntakeStore interface {
	Upsert(ctx context.Context, m IntakeMarket) error
	UpsertBatch(ctx context.Context, markets []IntakeMarket) error
	GetByID(ctx context.Context, polymarketID string) (IntakeMarket, error)
	List(ctx context.Context, filter IntakeFilter, opts ListOpts) ([]IntakeMarket, error)
	Count(ctx context.Context, filter IntakeFilter) (int64, error)
	// MarkApproved transitions a pending record to approved, recording the
	// internal event id and the resolved outcome mappings. It returns
	// ErrAlreadyDecided when the record is no longer pending.
	MarkApproved(ctx context.Context, polymarketID, internalEventID string, mappings []OutcomeMapping) error
	// MarkRejected transitions a pending record to rejected with an optional
	// free-text reason. It returns ErrAlreadyDecided when the record is no
	// longer pending.
	MarkRejected(ctx context.Context, polymarketID, reason string) error
}

// DecisionStore persists the append-only decision audit trail.
type DecisionStore interface {
	Insert(ctx context.Context, d IntakeDecision) error
	ListByMarket(ctx context.Context, polymarketID string) ([]IntakeDecision, error)
	ListRecent(ctx context.Context, limit int) ([]IntakeDecision, error)
}

// UserStore persists moderation state for platform accounts.
type UserStore interface {
	GetByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context, filter UserFilter, opts ListOpts) ([]User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	SetStatus(ctx context.Context, id string, status UserStatus, reason string) error
}

// WithdrawalStore persists withdrawal review state.
type WithdrawalStore interface {
	GetByID(ctx context.Context, id string) (Withdrawal, error)
	List(ctx context.Context, status WithdrawalStatus, opts ListOpts) ([]Withdrawal, error)
	Review(ctx context.Context, id string, status WithdrawalStatus, reviewer, reason string) error
}

// FinanceStore reads financial rollups for the analytics screens.
type FinanceStore interface {
	ListDays(ctx context.Context, since time.Time) ([]FinanceDay, error)
}

// HedgeStore persists hedge positions for the hedging monitor.
type HedgeStore interface {
	Upsert(ctx context.Context, p HedgePosition) error
	ListAll(ctx context.Context) ([]HedgePosition, error)
}

// AuditStore persists an append-only admin action log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
}
