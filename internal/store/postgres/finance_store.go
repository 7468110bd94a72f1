package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketdesk/admind/internal/domain"
)

// FinanceStore implements domain.FinanceStore using PostgreSQL. The
// finance_daily table is written by the trading core's settlement job; this
// store only reads it for the analytics screens.
type FinanceStore struct {
	pool *pgxpool.Pool
}

// NewFinanceStore creates a new FinanceStore backed by the given pool.
func NewFinanceStore(pool *pgxpool.Pool) *FinanceStore {
	return &FinanceStore{pool: pool}
}

// ListDays returns daily rollups from the given day onward, oldest first.
func (s *FinanceStore) ListDays(ctx context.Context, since time.Time) ([]domain.FinanceDay, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT day, deposits::text, withdrawals::text, revenue::text, active_users
		FROM finance_daily
		WHERE day >= $1
		ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: list finance days: %w", err)
	}
	defer rows.Close()

	var out []domain.FinanceDay
	for rows.Next() {
		var d domain.FinanceDay
		var deposits, withdrawals, revenue string
		if err := rows.Scan(&d.Day, &deposits, &withdrawals, &revenue, &d.ActiveUsers); err != nil {
			return nil, fmt.Errorf("postgres: scan finance day: %w", err)
		}
		if err := d.Deposits.UnmarshalText([]byte(deposits)); err != nil {
			return nil, fmt.Errorf("postgres: parse deposits: %w", err)
		}
		if err := d.Withdrawals.UnmarshalText([]byte(withdrawals)); err != nil {
			return nil, fmt.Errorf("postgres: parse withdrawals: %w", err)
		}
		if err := d.Revenue.UnmarshalText([]byte(revenue)); err != nil {
			return nil, fmt.Errorf("postgres: parse revenue: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list finance days rows: %w", err)
	}
	return out, nil
}

var _ domain.FinanceStore = (*FinanceStore)(nil)
