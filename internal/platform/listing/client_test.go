package listing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketdesk/admind/internal/crypto"
	"github.com/marketdesk/admind/internal/domain"
)

func TestSubmitApproval(t *testing.T) {
	var gotPath string
	var gotBody domain.ApprovalPayload
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Admind-Key")
		if r.Header.Get("X-Admind-Signature") == "" {
			t.Error("missing signature header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, &crypto.HMACAuth{KeyID: "admind-test", Secret: "s"})
	payload := domain.ApprovalPayload{
		PolymarketID:    "pm-1",
		InternalEventID: "123456789",
		LegacyTokenID:   "tok-1",
		MarketType:      domain.MarketTypeBinary,
	}

	if err := client.SubmitApproval(context.Background(), payload); err != nil {
		t.Fatalf("SubmitApproval: %v", err)
	}
	if gotPath != "/internal/markets/approve" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "admind-test" {
		t.Errorf("key header = %q", gotKey)
	}
	if gotBody.PolymarketID != "pm-1" || gotBody.LegacyTokenID != "tok-1" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestSubmitApprovalNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	err := client.SubmitApproval(context.Background(), domain.ApprovalPayload{PolymarketID: "pm-1"})
	if err == nil {
		t.Fatal("expected error on 409")
	}
}

func TestSubmitRejection(t *testing.T) {
	var got rejectRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/markets/reject" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	client := New(srv.URL, nil)
	if err := client.SubmitRejection(context.Background(), "pm-2", "duplicate listing"); err != nil {
		t.Fatalf("SubmitRejection: %v", err)
	}
	if got.PolymarketID != "pm-2" || got.Reason != "duplicate listing" {
		t.Errorf("body = %+v", got)
	}
}
