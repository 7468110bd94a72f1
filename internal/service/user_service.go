package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marketdesk/admind/internal/domain"
)

// UserService handles account moderation: listing, banning, unbanning.
type UserService struct {
	users  domain.UserStore
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserStore, audit domain.AuditStore, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		audit:  audit,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

// List returns a page of users plus the total count for the filter.
func (s *UserService) List(ctx context.Context, filter domain.UserFilter, opts domain.ListOpts) ([]domain.User, int64, error) {
	users, err := s.users.List(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("user_service: list: %w", err)
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("user_service: count: %w", err)
	}
	return users, total, nil
}

// Ban bans an account. A reason is required so the audit trail explains
// itself later.
func (s *UserService) Ban(ctx context.Context, id, reason, bannedBy string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("user_service: ban %q: reason is required: %w", id, domain.ErrInvalidInput)
	}

	if err := s.users.SetStatus(ctx, id, domain.UserStatusBanned, reason); err != nil {
		return fmt.Errorf("user_service: ban %q: %w", id, err)
	}

	if err := s.audit.Log(ctx, "user.ban", map[string]any{
		"userId": id,
		"reason": reason,
		"by":     bannedBy,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "user banned",
		slog.String("user_id", id),
		slog.String("reason", reason),
	)
	return nil
}

// Unban restores an account to active and clears the stored ban reason.
func (s *UserService) Unban(ctx context.Context, id, unbannedBy string) error {
	if err := s.users.SetStatus(ctx, id, domain.UserStatusActive, ""); err != nil {
		return fmt.Errorf("user_service: unban %q: %w", id, err)
	}

	if err := s.audit.Log(ctx, "user.unban", map[string]any{
		"userId": id,
		"by":     unbannedBy,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "user unbanned", slog.String("user_id", id))
	return nil
}
