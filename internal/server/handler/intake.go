package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/intake"
	"github.com/marketdesk/admind/internal/server/middleware"
)

// IntakeService defines what the intake handler needs from the service layer.
type IntakeService interface {
	List(ctx context.Context, filter domain.IntakeFilter, opts domain.ListOpts) ([]domain.IntakeMarket, int64, error)
	Get(ctx context.Context, polymarketID string) (domain.IntakeMarket, error)
	Decisions(ctx context.Context, polymarketID string) ([]domain.IntakeDecision, error)
	Approve(ctx context.Context, polymarketID string, opts intake.ApproveOptions) (domain.ApprovalPayload, []intake.ResolutionWarning, error)
	Reject(ctx context.Context, polymarketID, reason, decidedBy string) error
	BulkApprove(ctx context.Context, polymarketIDs []string, decidedBy string, progress intake.ProgressFunc) (intake.BulkResult, error)
}

// IntakeHandler serves the intake review endpoints.
type IntakeHandler struct {
	svc    IntakeService
	logger *slog.Logger
}

// NewIntakeHandler creates an IntakeHandler.
func NewIntakeHandler(svc IntakeService, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{svc: svc, logger: logger}
}

type listIntakeResponse struct {
	Markets []domain.IntakeMarket `json:"markets"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// List returns intake candidates with optional search and status filters.
// GET /api/polymarket/intake?search=&status=&limit=50&offset=0
func (h *IntakeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.IntakeFilter{
		Search: q.Get("search"),
		Status: domain.IntakeStatus(q.Get("status")),
	}
	switch filter.Status {
	case "", domain.IntakeStatusPending, domain.IntakeStatusApproved, domain.IntakeStatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	opts := parseListOpts(r)

	markets, total, err := h.svc.List(r.Context(), filter, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list intake failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list intake markets")
		return
	}

	writeJSON(w, http.StatusOK, listIntakeResponse{
		Markets: markets,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// Get returns a single intake record.
// GET /api/polymarket/intake/{id}
func (h *IntakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "intake market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get intake failed",
			slog.String("polymarket_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get intake market")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// Decisions returns the decision history for one market.
// GET /api/polymarket/intake/{id}/decisions
func (h *IntakeHandler) Decisions(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	decisions, err := h.svc.Decisions(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list decisions failed",
			slog.String("polymarket_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list decisions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

type approveRequest struct {
	PolymarketID    string `json:"polymarketId"`
	InternalEventID string `json:"internalEventId,omitempty"`
	MarketType      string `json:"marketType,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

type approveResponse struct {
	Payload  domain.ApprovalPayload     `json:"payload"`
	Warnings []intake.ResolutionWarning `json:"warnings,omitempty"`
}

// Approve approves a single intake market.
// POST /api/polymarket/intake/approve
func (h *IntakeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := req.PolymarketID
	if id == "" {
		writeError(w, http.StatusBadRequest, "polymarketId is required")
		return
	}

	typeOverride := domain.MarketType(req.MarketType)
	if req.MarketType != "" && !typeOverride.Valid() {
		writeError(w, http.StatusBadRequest, "invalid market type")
		return
	}

	payload, warnings, err := h.svc.Approve(r.Context(), id, intake.ApproveOptions{
		InternalEventID: req.InternalEventID,
		TypeOverride:    typeOverride,
		Notes:           req.Notes,
		DecidedBy:       middleware.Actor(r.Context()),
	})
	if err != nil {
		h.writeDecisionError(w, r, id, "approve", err)
		return
	}

	writeJSON(w, http.StatusOK, approveResponse{Payload: payload, Warnings: warnings})
}

type rejectRequest struct {
	PolymarketID string `json:"polymarketId"`
	Reason       string `json:"reason,omitempty"`
}

// Reject rejects a single intake market.
// POST /api/polymarket/intake/reject
func (h *IntakeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := req.PolymarketID
	if id == "" {
		writeError(w, http.StatusBadRequest, "polymarketId is required")
		return
	}

	if err := h.svc.Reject(r.Context(), id, req.Reason, middleware.Actor(r.Context())); err != nil {
		h.writeDecisionError(w, r, id, "reject", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

type bulkApproveRequest struct {
	PolymarketIDs []string `json:"polymarketIds"`
}

type bulkApproveResponse struct {
	Results   []intake.BulkItemResult `json:"results"`
	Succeeded int                     `json:"succeeded"`
	Total     int                     `json:"total"`
	Summary   string                  `json:"summary,omitempty"`
}

// BulkApprove approves a batch of intake markets sequentially. The response
// always carries per-item results; a partial failure is still HTTP 200.
// POST /api/polymarket/intake/bulk-approve
func (h *IntakeHandler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkApproveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.PolymarketIDs) == 0 {
		writeError(w, http.StatusBadRequest, "polymarketIds is required")
		return
	}

	result, err := h.svc.BulkApprove(r.Context(), req.PolymarketIDs, middleware.Actor(r.Context()), nil)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			writeError(w, http.StatusConflict, "another bulk approval is already running")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: bulk approve failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "bulk approval failed")
		return
	}

	writeJSON(w, http.StatusOK, bulkApproveResponse{
		Results:   result.Results,
		Succeeded: result.Succeeded(),
		Total:     result.Total(),
		Summary:   result.Summary(),
	})
}

func (h *IntakeHandler) writeDecisionError(w http.ResponseWriter, r *http.Request, id, action string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "intake market not found")
	case errors.Is(err, domain.ErrAlreadyDecided):
		writeError(w, http.StatusConflict, "intake market already decided")
	default:
		h.logger.ErrorContext(r.Context(), "handler: "+action+" failed",
			slog.String("polymarket_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "listing service error")
	}
}
