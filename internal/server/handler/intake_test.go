package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/intake"
)

type stubIntakeService struct {
	markets    map[string]domain.IntakeMarket
	approveErr error
	bulkErr    error
	bulkResult intake.BulkResult
}

func (s *stubIntakeService) List(_ context.Context, _ domain.IntakeFilter, _ domain.ListOpts) ([]domain.IntakeMarket, int64, error) {
	var out []domain.IntakeMarket
	for _, m := range s.markets {
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (s *stubIntakeService) Get(_ context.Context, id string) (domain.IntakeMarket, error) {
	m, ok := s.markets[id]
	if !ok {
		return domain.IntakeMarket{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *stubIntakeService) Decisions(_ context.Context, _ string) ([]domain.IntakeDecision, error) {
	return nil, nil
}

func (s *stubIntakeService) Approve(_ context.Context, id string, opts intake.ApproveOptions) (domain.ApprovalPayload, []intake.ResolutionWarning, error) {
	if s.approveErr != nil {
		return domain.ApprovalPayload{}, nil, s.approveErr
	}
	return domain.ApprovalPayload{
		PolymarketID:    id,
		InternalEventID: "123456789",
		MarketType:      domain.MarketTypeBinary,
	}, nil, nil
}

func (s *stubIntakeService) Reject(_ context.Context, id, _, _ string) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	if _, ok := s.markets[id]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *stubIntakeService) BulkApprove(_ context.Context, _ []string, _ string, _ intake.ProgressFunc) (intake.BulkResult, error) {
	return s.bulkResult, s.bulkErr
}

func newIntakeMux(svc *stubIntakeService) *http.ServeMux {
	h := NewIntakeHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/polymarket/intake", h.List)
	mux.HandleFunc("GET /api/polymarket/intake/{id}", h.Get)
	mux.HandleFunc("POST /api/polymarket/intake/approve", h.Approve)
	mux.HandleFunc("POST /api/polymarket/intake/reject", h.Reject)
	mux.HandleFunc("POST /api/polymarket/intake/bulk-approve", h.BulkApprove)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestListRejectsUnknownStatus(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{})

	rec := doRequest(t, mux, http.MethodGet, "/api/polymarket/intake?status=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetNotFound(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{markets: map[string]domain.IntakeMarket{}})

	rec := doRequest(t, mux, http.MethodGet, "/api/polymarket/intake/pm-missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestApprove(t *testing.T) {
	svc := &stubIntakeService{markets: map[string]domain.IntakeMarket{"pm-1": {PolymarketID: "pm-1"}}}
	mux := newIntakeMux(svc)

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/approve",
		`{"polymarketId":"pm-1","notes":"looks fine"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp approveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Payload.PolymarketID != "pm-1" || resp.Payload.InternalEventID == "" {
		t.Errorf("payload = %+v", resp.Payload)
	}
}

func TestApproveRejectsBadMarketType(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{})

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/approve",
		`{"polymarketId":"pm-1","marketType":"TRINARY"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestApproveConflict(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{approveErr: domain.ErrAlreadyDecided})

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/approve",
		`{"polymarketId":"pm-1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestApproveRequiresID(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{})

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/approve", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBulkApprovePartial(t *testing.T) {
	svc := &stubIntakeService{bulkResult: intake.BulkResult{Results: []intake.BulkItemResult{
		{PolymarketID: "pm-1"},
		{PolymarketID: "pm-2", Error: "listing service error"},
		{PolymarketID: "pm-3"},
	}}}
	mux := newIntakeMux(svc)

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/bulk-approve",
		`{"polymarketIds":["pm-1","pm-2","pm-3"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp bulkApproveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Succeeded != 2 || resp.Total != 3 {
		t.Errorf("got %d/%d, want 2/3", resp.Succeeded, resp.Total)
	}
	if want := "Bulk approve: 2/3 succeeded"; resp.Summary != want {
		t.Errorf("summary = %q, want %q", resp.Summary, want)
	}
}

func TestBulkApproveLockHeld(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{bulkErr: domain.ErrLockHeld})

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/bulk-approve",
		`{"polymarketIds":["pm-1"]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestBulkApproveRequiresIDs(t *testing.T) {
	mux := newIntakeMux(&stubIntakeService{})

	rec := doRequest(t, mux, http.MethodPost, "/api/polymarket/intake/bulk-approve", `{"polymarketIds":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
