package domain

import "time"

// UserStatus is the moderation state of a platform account.
type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

// User is the moderation view of a platform account. Balances and bet history
// live in the trading core; the admin backend only reads the fields it
// moderates on.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	Status     UserStatus `json:"status"`
	BanReason  string     `json:"banReason,omitempty"`
	TotalBets  int64      `json:"totalBets"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
}

// UserFilter narrows user list queries.
type UserFilter struct {
	Search string
	Status UserStatus // empty means all
}
