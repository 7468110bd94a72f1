package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marketdesk/admind/internal/domain"
)

// WithdrawalNotifier receives withdrawal review announcements.
type WithdrawalNotifier interface {
	WithdrawalReviewed(ctx context.Context, w domain.Withdrawal, decidedBy string)
}

// WithdrawalService reviews user withdrawal requests.
type WithdrawalService struct {
	withdrawals domain.WithdrawalStore
	audit       domain.AuditStore
	notifier    WithdrawalNotifier
	logger      *slog.Logger
}

// NewWithdrawalService creates a WithdrawalService. notifier may be nil.
func NewWithdrawalService(withdrawals domain.WithdrawalStore, audit domain.AuditStore, notifier WithdrawalNotifier, logger *slog.Logger) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		audit:       audit,
		notifier:    notifier,
		logger:      logger.With(slog.String("component", "withdrawal_service")),
	}
}

// List returns withdrawals in the given status, newest first.
func (s *WithdrawalService) List(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOpts) ([]domain.Withdrawal, error) {
	ws, err := s.withdrawals.List(ctx, status, opts)
	if err != nil {
		return nil, fmt.Errorf("withdrawal_service: list: %w", err)
	}
	return ws, nil
}

// Approve releases a pending withdrawal for payout.
func (s *WithdrawalService) Approve(ctx context.Context, id, reviewer string) error {
	return s.review(ctx, id, domain.WithdrawalStatusApproved, reviewer, "")
}

// Reject declines a pending withdrawal. A reason is required.
func (s *WithdrawalService) Reject(ctx context.Context, id, reviewer, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("withdrawal_service: reject %q: reason is required: %w", id, domain.ErrInvalidInput)
	}
	return s.review(ctx, id, domain.WithdrawalStatusRejected, reviewer, reason)
}

func (s *WithdrawalService) review(ctx context.Context, id string, status domain.WithdrawalStatus, reviewer, reason string) error {
	if err := s.withdrawals.Review(ctx, id, status, reviewer, reason); err != nil {
		return fmt.Errorf("withdrawal_service: review %q: %w", id, err)
	}

	if err := s.audit.Log(ctx, "withdrawal."+string(status), map[string]any{
		"withdrawalId": id,
		"by":           reviewer,
		"reason":       reason,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	if s.notifier != nil {
		if w, err := s.withdrawals.GetByID(ctx, id); err == nil {
			s.notifier.WithdrawalReviewed(ctx, w, reviewer)
		}
	}

	s.logger.InfoContext(ctx, "withdrawal reviewed",
		slog.String("withdrawal_id", id),
		slog.String("status", string(status)),
	)
	return nil
}
