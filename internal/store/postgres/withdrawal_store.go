package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketdesk/admind/internal/domain"
)

// WithdrawalStore implements domain.WithdrawalStore using PostgreSQL.
// Amounts map to NUMERIC columns and scan into decimal.Decimal.
type WithdrawalStore struct {
	pool *pgxpool.Pool
}

// NewWithdrawalStore creates a new WithdrawalStore backed by the given pool.
func NewWithdrawalStore(pool *pgxpool.Pool) *WithdrawalStore {
	return &WithdrawalStore{pool: pool}
}

const withdrawalCols = `id, user_id, amount::text, currency, destination, status,
	reject_reason, reviewed_by, requested_at, reviewed_at`

func scanWithdrawal(row pgx.Row) (domain.Withdrawal, error) {
	var w domain.Withdrawal
	var status, amount string
	err := row.Scan(&w.ID, &w.UserID, &amount, &w.Currency, &w.Destination, &status,
		&w.RejectReason, &w.ReviewedBy, &w.RequestedAt, &w.ReviewedAt)
	if err != nil {
		return domain.Withdrawal{}, err
	}
	w.Status = domain.WithdrawalStatus(status)
	if err := w.Amount.UnmarshalText([]byte(amount)); err != nil {
		return domain.Withdrawal{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return w, nil
}

// GetByID retrieves a withdrawal by id.
func (s *WithdrawalStore) GetByID(ctx context.Context, id string) (domain.Withdrawal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+withdrawalCols+` FROM withdrawals WHERE id = $1`, id)
	w, err := scanWithdrawal(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Withdrawal{}, domain.ErrNotFound
		}
		return domain.Withdrawal{}, fmt.Errorf("postgres: get withdrawal %s: %w", id, err)
	}
	return w, nil
}

// List returns withdrawals, optionally filtered by status, oldest pending
// first so reviewers work the queue in arrival order.
func (s *WithdrawalStore) List(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOpts) ([]domain.Withdrawal, error) {
	var args []any
	query := `SELECT ` + withdrawalCols + ` FROM withdrawals`
	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	query += " ORDER BY requested_at"
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
		return nil, fmt.Errorf("postgres: list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan withdrawal: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list withdrawals rows: %w", err)
	}
	return out, nil
}

// Review finalizes a pending withdrawal. The status guard keeps a request
// from being reviewed twice.
func (s *WithdrawalStore) Review(ctx context.Context, id string, status domain.WithdrawalStatus, reviewer, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE withdrawals
		SET status = $2, reviewed_by = $3, reject_reason = $4, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, string(status), reviewer, reason)
	if err != nil {
		return fmt.Errorf("postgres: review withdrawal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := s.pool.QueryRow(ctx, `SELECT status FROM withdrawals WHERE id = $1`, id).Scan(&current)
		if err != nil {
			if err == pgx.ErrNoRows {
				return domain.ErrNotFound
			}
			return fmt.Errorf("postgres: check withdrawal %s: %w", id, err)
		}
		return domain.ErrAlreadyDecided
	}
	return nil
}

var _ domain.WithdrawalStore = (*WithdrawalStore)(nil)
