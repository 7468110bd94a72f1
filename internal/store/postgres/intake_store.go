package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketdesk/admind/internal/domain"
)

// IntakeStore implements domain.IntakeStore using PostgreSQL. Outcome and
// token lists are stored as JSONB because they are read-only feed snapshots,
// never queried field-by-field.
type IntakeStore struct {
	pool *pgxpool.Pool
}

// NewIntakeStore creates a new IntakeStore backed by the given pool.
func NewIntakeStore(pool *pgxpool.Pool) *IntakeStore {
	return &IntakeStore{pool: pool}
}

const intakeCols = `polymarket_id, condition_id, title, description, outcomes, tokens,
	market_type, status, categories, image_url, end_date, volume,
	internal_event_id, reject_reason, mappings, created_at, updated_at`

const upsertIntakeQuery = `
	INSERT INTO intake_markets (
		polymarket_id, condition_id, title, description, outcomes, tokens,
		market_type, status, categories, image_url, end_date, volume,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11, $12,
		COALESCE(NULLIF($13::timestamptz, '0001-01-01'), NOW()), NOW()
	)
	ON CONFLICT (polymarket_id) DO UPDATE SET
		condition_id = EXCLUDED.condition_id,
		title        = EXCLUDED.title,
		description  = EXCLUDED.description,
		outcomes     = EXCLUDED.outcomes,
		tokens       = EXCLUDED.tokens,
		market_type  = EXCLUDED.market_type,
		categories   = EXCLUDED.categories,
		image_url    = EXCLUDED.image_url,
		end_date     = EXCLUDED.end_date,
		volume       = EXCLUDED.volume,
		updated_at   = NOW()
	WHERE intake_markets.status = 'pending'`

func intakeArgs(m domain.IntakeMarket) ([]any, error) {
	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("marshal outcomes: %w", err)
	}
	tokens, err := json.Marshal(m.Tokens)
	if err != nil {
		return nil, fmt.Errorf("marshal tokens: %w", err)
	}
	return []any{
		m.PolymarketID, m.ConditionID, m.Title, m.Description, outcomes, tokens,
		string(m.MarketType), string(m.Status), m.Categories, m.ImageURL, m.EndDate, m.Volume,
		m.CreatedAt,
	}, nil
}

// Upsert inserts or refreshes a single candidate. Decided records are never
// overwritten: the feed keeps sending markets after an admin has acted.
func (s *IntakeStore) Upsert(ctx context.Context, m domain.IntakeMarket) error {
	args, err := intakeArgs(m)
	if err != nil {
		return fmt.Errorf("postgres: upsert intake %s: %w", m.PolymarketID, err)
	}
	if _, err := s.pool.Exec(ctx, upsertIntakeQuery, args...); err != nil {
		return fmt.Errorf("postgres: upsert intake %s: %w", m.PolymarketID, err)
	}
	return nil
}

// UpsertBatch inserts or refreshes multiple candidates in one batch.
func (s *IntakeStore) UpsertBatch(ctx context.Context, markets []domain.IntakeMarket) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		args, err := intakeArgs(m)
		if err != nil {
			return fmt.Errorf("postgres: upsert intake batch %s: %w", m.PolymarketID, err)
		}
		batch.Queue(upsertIntakeQuery, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert intake batch item %d: %w", i, err)
		}
	}
	return nil
}

func scanIntake(row pgx.Row) (domain.IntakeMarket, error) {
	var m domain.IntakeMarket
	var marketType, status string
	var outcomes, tokens, mappings []byte

	err := row.Scan(
		&m.PolymarketID, &m.ConditionID, &m.Title, &m.Description, &outcomes, &tokens,
		&marketType, &status, &m.Categories, &m.ImageURL, &m.EndDate, &m.Volume,
		&m.InternalEventID, &m.RejectReason, &mappings, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.IntakeMarket{}, err
	}
	m.MarketType = domain.MarketType(marketType)
	m.Status = domain.IntakeStatus(status)
	if err := json.Unmarshal(outcomes, &m.Outcomes); err != nil {
		return domain.IntakeMarket{}, fmt.Errorf("unmarshal outcomes: %w", err)
	}
	if err := json.Unmarshal(tokens, &m.Tokens); err != nil {
		return domain.IntakeMarket{}, fmt.Errorf("unmarshal tokens: %w", err)
	}
	return m, nil
}

// GetByID retrieves a candidate by its external market id.
func (s *IntakeStore) GetByID(ctx context.Context, polymarketID string) (domain.IntakeMarket, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+intakeCols+` FROM intake_markets WHERE polymarket_id = $1`, polymarketID)
	m, err := scanIntake(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.IntakeMarket{}, domain.ErrNotFound
		}
		return domain.IntakeMarket{}, fmt.Errorf("postgres: get intake %s: %w", polymarketID, err)
	}
	return m, nil
}

func intakeFilterClause(filter domain.IntakeFilter, args *[]any) string {
	clause := " WHERE TRUE"
	if filter.Status != "" {
		*args = append(*args, string(filter.Status))
		clause += fmt.Sprintf(" AND status = $%d", len(*args))
	}
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		clause += fmt.Sprintf(" AND title ILIKE $%d", len(*args))
	}
	return clause
}

// List returns candidates matching the filter, newest first.
func (s *IntakeStore) List(ctx context.Context, filter domain.IntakeFilter, opts domain.ListOpts) ([]domain.IntakeMarket, error) {
	var args []any
	query := `SELECT ` + intakeCols + ` FROM intake_markets` + intakeFilterClause(filter, &args)
	query += " ORDER BY created_at DESC, polymarket_id"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list intake: %w", err)
	}
	defer rows.Close()

	var markets []domain.IntakeMarket
	for rows.Next() {
		m, err := scanIntake(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan intake: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list intake rows: %w", err)
	}
	return markets, nil
}

// Count returns the number of candidates matching the filter.
func (s *IntakeStore) Count(ctx context.Context, filter domain.IntakeFilter) (int64, error) {
	var args []any
	query := `SELECT COUNT(*) FROM intake_markets` + intakeFilterClause(filter, &args)

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count intake: %w", err)
	}
	return count, nil
}

// MarkApproved transitions a pending record to approved. The WHERE clause on
// status makes the transition atomic: a concurrent decision loses and gets
// ErrAlreadyDecided.
func (s *IntakeStore) MarkApproved(ctx context.Context, polymarketID, internalEventID string, mappings []domain.OutcomeMapping) error {
	data, err := json.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("postgres: approve intake %s: marshal mappings: %w", polymarketID, err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE intake_markets
		SET status = 'approved', internal_event_id = $2, mappings = $3, updated_at = NOW()
		WHERE polymarket_id = $1 AND status = 'pending'`,
		polymarketID, internalEventID, data,
	)
	if err != nil {
		return fmt.Errorf("postgres: approve intake %s: %w", polymarketID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.decideConflict(ctx, polymarketID)
	}
	return nil
}

// MarkRejected transitions a pending record to rejected.
func (s *IntakeStore) MarkRejected(ctx context.Context, polymarketID, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE intake_markets
		SET status = 'rejected', reject_reason = $2, updated_at = NOW()
		WHERE polymarket_id = $1 AND status = 'pending'`,
		polymarketID, reason,
	)
	if err != nil {
		return fmt.Errorf("postgres: reject intake %s: %w", polymarketID, err)
	}
	if tag.RowsAffected() == 0 {
		return s.decideConflict(ctx, polymarketID)
	}
	return nil
}

// decideConflict distinguishes "no such record" from "already decided" when a
// status transition matched zero rows.
func (s *IntakeStore) decideConflict(ctx context.Context, polymarketID string) error {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM intake_markets WHERE polymarket_id = $1`, polymarketID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ErrNotFound
		}
		return fmt.Errorf("postgres: check intake %s: %w", polymarketID, err)
	}
	return domain.ErrAlreadyDecided
}

var _ domain.IntakeStore = (*IntakeStore)(nil)
