package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/marketdesk/admind/internal/service"
)

// AnalyticsService defines what the analytics handler needs from the service
// layer.
type AnalyticsService interface {
	Finance(ctx context.Context, days int) (service.FinanceReport, error)
}

// AnalyticsHandler serves the finance dashboard endpoint.
type AnalyticsHandler struct {
	svc    AnalyticsService
	logger *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// Finance returns daily financial rollups plus window totals.
// GET /api/admin/analytics/finance?days=30
func (h *AnalyticsHandler) Finance(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid days parameter")
			return
		}
		days = n
	}

	report, err := h.svc.Finance(r.Context(), days)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: finance report failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to build finance report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
