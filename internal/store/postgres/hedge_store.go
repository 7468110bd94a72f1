package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketdesk/admind/internal/domain"
)

// HedgeStore implements domain.HedgeStore using PostgreSQL.
type HedgeStore struct {
	pool *pgxpool.Pool
}

// NewHedgeStore creates a new HedgeStore backed by the given pool.
func NewHedgeStore(pool *pgxpool.Pool) *HedgeStore {
	return &HedgeStore{pool: pool}
}

// Upsert inserts or replaces a hedge position snapshot.
func (s *HedgeStore) Upsert(ctx context.Context, p domain.HedgePosition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hedge_positions (internal_event_id, polymarket_id, token_id, exposure, hedged_notional, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (internal_event_id) DO UPDATE SET
			polymarket_id   = EXCLUDED.polymarket_id,
			token_id        = EXCLUDED.token_id,
			exposure        = EXCLUDED.exposure,
			hedged_notional = EXCLUDED.hedged_notional,
			updated_at      = NOW()`,
		p.InternalEventID, p.PolymarketID, p.TokenID, p.Exposure, p.HedgedNotional,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert hedge position %s: %w", p.InternalEventID, err)
	}
	return nil
}

// ListAll returns every tracked hedge position.
func (s *HedgeStore) ListAll(ctx context.Context) ([]domain.HedgePosition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT internal_event_id, polymarket_id, token_id, exposure, hedged_notional, updated_at
		FROM hedge_positions
		ORDER BY internal_event_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list hedge positions: %w", err)
	}
	defer rows.Close()

	var out []domain.HedgePosition
	for rows.Next() {
		var p domain.HedgePosition
		if err := rows.Scan(&p.InternalEventID, &p.PolymarketID, &p.TokenID, &p.Exposure, &p.HedgedNotional, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan hedge position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list hedge positions rows: %w", err)
	}
	return out, nil
}

var _ domain.HedgeStore = (*HedgeStore)(nil)
