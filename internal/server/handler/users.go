package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/server/middleware"
)

// UserService defines what the users handler needs from the service layer.
type UserService interface {
	List(ctx context.Context, filter domain.UserFilter, opts domain.ListOpts) ([]domain.User, int64, error)
	Ban(ctx context.Context, id, reason, bannedBy string) error
	Unban(ctx context.Context, id, unbannedBy string) error
}

// UserHandler serves the account moderation endpoints.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

type listUsersResponse struct {
	Users  []domain.User `json:"users"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List returns users with optional search and status filters.
// GET /api/admin/users?search=&status=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.UserFilter{
		Search: q.Get("search"),
		Status: domain.UserStatus(q.Get("status")),
	}
	switch filter.Status {
	case "", domain.UserStatusActive, domain.UserStatusBanned:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	opts := parseListOpts(r)

	users, total, err := h.svc.List(r.Context(), filter, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list users failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, listUsersResponse{
		Users:  users,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

type banRequest struct {
	Reason string `json:"reason"`
}

// Ban bans an account.
// POST /api/admin/users/{id}/ban
func (h *UserHandler) Ban(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	var req banRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.svc.Ban(r.Context(), id, req.Reason, middleware.Actor(r.Context())); err != nil {
		h.writeUserError(w, r, id, "ban", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "banned"})
}

// Unban restores an account.
// POST /api/admin/users/{id}/unban
func (h *UserHandler) Unban(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}

	if err := h.svc.Unban(r.Context(), id, middleware.Actor(r.Context())); err != nil {
		h.writeUserError(w, r, id, "unban", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, r *http.Request, id, action string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "reason is required")
	default:
		h.logger.ErrorContext(r.Context(), "handler: "+action+" failed",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to update user")
	}
}
