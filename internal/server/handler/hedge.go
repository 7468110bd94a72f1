package handler

import (
	"net/http"

	"github.com/marketdesk/admind/internal/domain"
)

// HedgeStatusProvider exposes the latest hedge monitor snapshot.
type HedgeStatusProvider interface {
	Status() domain.HedgeStatus
}

// HedgeHandler serves the hedge monitoring endpoint.
type HedgeHandler struct {
	monitor HedgeStatusProvider
}

// NewHedgeHandler creates a HedgeHandler.
func NewHedgeHandler(monitor HedgeStatusProvider) *HedgeHandler {
	return &HedgeHandler{monitor: monitor}
}

// Status returns the latest hedge coverage snapshot.
// GET /api/hedge/status
func (h *HedgeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Status())
}
