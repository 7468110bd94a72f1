package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/server/middleware"
)

// WithdrawalService defines what the withdrawals handler needs from the
// service layer.
type WithdrawalService interface {
	List(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOpts) ([]domain.Withdrawal, error)
	Approve(ctx context.Context, id, reviewer string) error
	Reject(ctx context.Context, id, reviewer, reason string) error
}

// WithdrawalHandler serves the withdrawal review endpoints.
type WithdrawalHandler struct {
	svc    WithdrawalService
	logger *slog.Logger
}

// NewWithdrawalHandler creates a WithdrawalHandler.
func NewWithdrawalHandler(svc WithdrawalService, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc, logger: logger}
}

// List returns withdrawals, defaulting to the pending review queue.
// GET /api/admin/withdrawals?status=pending
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.WithdrawalStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.WithdrawalStatusPending
	}
	switch status {
	case domain.WithdrawalStatusPending, domain.WithdrawalStatusApproved, domain.WithdrawalStatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	withdrawals, err := h.svc.List(r.Context(), status, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list withdrawals failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list withdrawals")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"withdrawals": withdrawals})
}

// Approve releases a pending withdrawal.
// POST /api/admin/withdrawals/{id}/approve
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing withdrawal id")
		return
	}

	if err := h.svc.Approve(r.Context(), id, middleware.Actor(r.Context())); err != nil {
		h.writeReviewError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

type rejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

// Reject declines a pending withdrawal.
// POST /api/admin/withdrawals/{id}/reject
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing withdrawal id")
		return
	}

	var req rejectWithdrawalRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if err := h.svc.Reject(r.Context(), id, middleware.Actor(r.Context()), req.Reason); err != nil {
		h.writeReviewError(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *WithdrawalHandler) writeReviewError(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "withdrawal not found")
	case errors.Is(err, domain.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "withdrawal already reviewed")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "reason is required")
	default:
		h.logger.ErrorContext(r.Context(), "handler: review withdrawal failed",
			slog.String("withdrawal_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to review withdrawal")
	}
}
