package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketdesk/admind/internal/domain"
)

const intakeTTL = 2 * time.Minute

// IntakeCache implements domain.IntakeCache using Redis string keys holding
// JSON-serialized intake records. The TTL is short on purpose: the review
// queue is the source of truth in Postgres and the console reloads it after
// every mutation.
//
// Key schema:
//
//	intake:{polymarketID} - JSON-encoded domain.IntakeMarket
type IntakeCache struct {
	rdb *redis.Client
}

// NewIntakeCache creates an IntakeCache backed by the given Client.
func NewIntakeCache(c *Client) *IntakeCache {
	return &IntakeCache{rdb: c.rdb}
}

func intakeKey(id string) string { return "intake:" + id }

// Set stores an intake record with the package TTL.
func (ic *IntakeCache) Set(ctx context.Context, m domain.IntakeMarket) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("redis: marshal intake %s: %w", m.PolymarketID, err)
	}
	if err := ic.rdb.Set(ctx, intakeKey(m.PolymarketID), data, intakeTTL).Err(); err != nil {
		return fmt.Errorf("redis: set intake %s: %w", m.PolymarketID, err)
	}
	return nil
}

// Get retrieves an intake record by external market id. It returns
// domain.ErrNotFound when the key does not exist.
func (ic *IntakeCache) Get(ctx context.Context, polymarketID string) (domain.IntakeMarket, error) {
	data, err := ic.rdb.Get(ctx, intakeKey(polymarketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.IntakeMarket{}, domain.ErrNotFound
		}
		return domain.IntakeMarket{}, fmt.Errorf("redis: get intake %s: %w", polymarketID, err)
	}

	var m domain.IntakeMarket
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.IntakeMarket{}, fmt.Errorf("redis: unmarshal intake %s: %w", polymarketID, err)
	}
	return m, nil
}

// Invalidate removes an intake record from the cache.
func (ic *IntakeCache) Invalidate(ctx context.Context, polymarketID string) error {
	if err := ic.rdb.Del(ctx, intakeKey(polymarketID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate intake %s: %w", polymarketID, err)
	}
	return nil
}

var _ domain.IntakeCache = (*IntakeCache)(nil)
