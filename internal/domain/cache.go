package domain

import (
	"context"
	"time"
)

// IntakeCache caches intake records by external market id.
type IntakeCache interface {
	Get(ctx context.Context, polymarketID string) (IntakeMarket, error)
	Set(ctx context.Context, m IntakeMarket) error
	Invalidate(ctx context.Context, polymarketID string) error
}

// SignalBus is a lightweight pub/sub channel used to push reload triggers and
// alerts from backend workers to the WebSocket hub. Delivery is best-effort;
// nothing authoritative may depend on it.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter enforces request budgets across backend instances.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed mutual exclusion. The bulk-approval
// workflow holds a lock so only one batch runs platform-wide at a time.
type LockManager interface {
	// Acquire returns an unlock function on success, or ErrLockHeld when the
	// lock is held by another party.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// DecisionPublisher emits intake decision events to the analytics pipeline.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, d IntakeDecision) error
}

// DecisionArchiver stores an immutable snapshot of each decision.
type DecisionArchiver interface {
	ArchiveDecision(ctx context.Context, d IntakeDecision) error
}

// Well-known signal bus channels.
const (
	ChannelIntake = "ch:intake"
	ChannelHedge  = "ch:hedge"
)
