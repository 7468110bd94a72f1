package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketdesk/admind/internal/domain"
)

const marketsJSON = `[
	{
		"id": "0xabc",
		"question": "Will X happen by March?",
		"condition_id": "cond-1",
		"active": "true",
		"closed": false,
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.62\",\"0.38\"]",
		"tokens": [
			{"token_id": "111", "outcome": "Yes", "price": 0.62},
			{"token_id": "222", "outcome": "No", "price": 0.38}
		],
		"volume": "150000.5",
		"end_date_iso": "2026-03-01T00:00:00Z",
		"image": "https://img.example/x.png",
		"category": "Politics"
	},
	{
		"id": "0xdef",
		"question": "Who wins the cup?",
		"outcomes": "[\"Team A\",\"Team B\",\"Team C\"]",
		"outcomePrices": "not valid json",
		"tokens": [],
		"volume": "abc"
	}
]`

func TestListCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("closed"); got != "false" {
			t.Errorf("closed param = %q, want false", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsJSON))
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL)
	candidates, err := client.ListCandidates(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	m := candidates[0]
	if m.PolymarketID != "0xabc" || m.Title != "Will X happen by March?" {
		t.Errorf("unexpected market: %+v", m)
	}
	if m.MarketType != domain.MarketTypeBinary {
		t.Errorf("market type = %q, want BINARY for Yes/No outcomes", m.MarketType)
	}
	if m.Status != domain.IntakeStatusPending {
		t.Errorf("status = %q, want pending", m.Status)
	}
	if len(m.Outcomes) != 2 || !m.Outcomes[0].HasProbability || m.Outcomes[0].Probability != 0.62 {
		t.Errorf("outcomes not decoded: %+v", m.Outcomes)
	}
	if len(m.Tokens) != 2 || m.Tokens[1].TokenID != "222" {
		t.Errorf("tokens not decoded: %+v", m.Tokens)
	}
	if m.Volume != 150000.5 {
		t.Errorf("volume = %v", m.Volume)
	}
	if m.EndDate == nil {
		t.Error("end date not parsed")
	}

	// The second record has malformed list fields; decoding degrades
	// instead of failing the whole page.
	m2 := candidates[1]
	if m2.MarketType != domain.MarketTypeMultiple {
		t.Errorf("market type = %q, want MULTIPLE", m2.MarketType)
	}
	if len(m2.Outcomes) != 3 || m2.Outcomes[0].HasProbability {
		t.Errorf("outcomes = %+v, want 3 names without probabilities", m2.Outcomes)
	}
	if m2.Volume != 0 {
		t.Errorf("volume = %v, want 0 for unparseable input", m2.Volume)
	}
}

func TestListCandidatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL)
	if _, err := client.ListCandidates(context.Background(), 10, 0); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestPushClientDispatch(t *testing.T) {
	var got []string
	p := NewPushClient("ws://unused", func(kind string) {
		got = append(got, kind)
	}, discardLogger())

	ctx := context.Background()
	p.dispatch(ctx, []byte(`{"type":"markets"}`))
	p.dispatch(ctx, []byte(`{"type":"orderbook","asset_id":"1"}`))
	p.dispatch(ctx, []byte(`{"type":"something_else"}`))
	p.dispatch(ctx, []byte(`not json at all`)) // dropped silently

	if len(got) != 2 || got[0] != "markets" || got[1] != "orderbook" {
		t.Errorf("dispatched = %v, want [markets orderbook]", got)
	}
}
