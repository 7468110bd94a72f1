package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketdesk/admind/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userCols = `id, email, username, status, ban_reason, total_bets, created_at, last_seen_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var status string
	err := row.Scan(&u.ID, &u.Email, &u.Username, &status, &u.BanReason, &u.TotalBets, &u.CreatedAt, &u.LastSeenAt)
	if err != nil {
		return domain.User{}, err
	}
	u.Status = domain.UserStatus(status)
	return u, nil
}

// GetByID retrieves a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("postgres: get user %s: %w", id, err)
	}
	return u, nil
}

func userFilterClause(filter domain.UserFilter, args *[]any) string {
	clause := " WHERE TRUE"
	if filter.Status != "" {
		*args = append(*args, string(filter.Status))
		clause += fmt.Sprintf(" AND status = $%d", len(*args))
	}
	if filter.Search != "" {
		*args = append(*args, "%"+filter.Search+"%")
		clause += fmt.Sprintf(" AND (email ILIKE $%d OR username ILIKE $%d)", len(*args), len(*args))
	}
	return clause
}

// List returns users matching the filter, newest first.
func (s *UserStore) List(ctx context.Context, filter domain.UserFilter, opts domain.ListOpts) ([]domain.User, error) {
	var args []any
	query := `SELECT ` + userCols + ` FROM users` + userFilterClause(filter, &args)
	query += " ORDER BY created_at DESC"
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
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list users rows: %w", err)
	}
	return users, nil
}

// Count returns the number of users matching the filter.
func (s *UserStore) Count(ctx context.Context, filter domain.UserFilter) (int64, error) {
	var args []any
	query := `SELECT COUNT(*) FROM users` + userFilterClause(filter, &args)

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count users: %w", err)
	}
	return count, nil
}

// SetStatus updates a user's moderation status. The reason is cleared when a
// user is unbanned.
func (s *UserStore) SetStatus(ctx context.Context, id string, status domain.UserStatus, reason string) error {
	if status != domain.UserStatusBanned {
		reason = ""
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET status = $2, ban_reason = $3 WHERE id = $1`,
		id, string(status), reason)
	if err != nil {
		return fmt.Errorf("postgres: set user %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.UserStore = (*UserStore)(nil)
