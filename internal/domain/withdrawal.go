package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the review state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// Withdrawal is a user withdrawal request awaiting admin review. Amounts are
// exact decimals; float arithmetic is not acceptable for money movement.
type Withdrawal struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	Amount       decimal.Decimal  `json:"amount"`
	Currency     string           `json:"currency"`
	Destination  string           `json:"destination"`
	Status       WithdrawalStatus `json:"status"`
	RejectReason string           `json:"rejectReason,omitempty"`
	ReviewedBy   string           `json:"reviewedBy,omitempty"`
	RequestedAt  time.Time        `json:"requestedAt"`
	ReviewedAt   *time.Time       `json:"reviewedAt,omitempty"`
}

// FinanceDay is one day of financial rollups for the analytics screens.
type FinanceDay struct {
	Day         time.Time       `json:"day"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Revenue     decimal.Decimal `json:"revenue"`
	ActiveUsers int64           `json:"activeUsers"`
}
