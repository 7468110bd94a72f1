package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketdesk/admind/internal/domain"
)

// DecisionStore implements domain.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *pgxpool.Pool
}

// NewDecisionStore creates a new DecisionStore backed by the given pool.
func NewDecisionStore(pool *pgxpool.Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Insert appends one decision to the audit trail.
func (s *DecisionStore) Insert(ctx context.Context, d domain.IntakeDecision) error {
	mappings, err := json.Marshal(d.Mappings)
	if err != nil {
		return fmt.Errorf("postgres: insert decision %s: marshal mappings: %w", d.ID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO intake_decisions (
			id, polymarket_id, action, internal_event_id, mappings, reason, decided_by, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.PolymarketID, string(d.Action), d.InternalEventID, mappings, d.Reason, d.DecidedBy, d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert decision %s: %w", d.ID, err)
	}
	return nil
}

func scanDecisions(rows pgx.Rows) ([]domain.IntakeDecision, error) {
	var out []domain.IntakeDecision
	for rows.Next() {
		var d domain.IntakeDecision
		var action string
		var mappings []byte
		if err := rows.Scan(
			&d.ID, &d.PolymarketID, &action, &d.InternalEventID,
			&mappings, &d.Reason, &d.DecidedBy, &d.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Action = domain.DecisionAction(action)
		if err := json.Unmarshal(mappings, &d.Mappings); err != nil {
			return nil, fmt.Errorf("unmarshal mappings: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const decisionCols = `id, polymarket_id, action, internal_event_id, mappings, reason, decided_by, decided_at`

// ListByMarket returns all decisions recorded for one market, oldest first.
func (s *DecisionStore) ListByMarket(ctx context.Context, polymarketID string) ([]domain.IntakeDecision, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+decisionCols+` FROM intake_decisions WHERE polymarket_id = $1 ORDER BY decided_at`,
		polymarketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list decisions for %s: %w", polymarketID, err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// ListRecent returns the most recent decisions across all markets.
func (s *DecisionStore) ListRecent(ctx context.Context, limit int) ([]domain.IntakeDecision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+decisionCols+` FROM intake_decisions ORDER BY decided_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent decisions: %w", err)
	}
	defer rows.Close()
	return scanDecisions(rows)
}

var _ domain.DecisionStore = (*DecisionStore)(nil)
