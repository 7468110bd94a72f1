package intake

import (
	"strings"
	"testing"

	"github.com/marketdesk/admind/internal/domain"
)

func TestNewInternalEventID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewInternalEventID()
		if len(id) != 9 {
			t.Fatalf("id %q has length %d, want 9", id, len(id))
		}
		for _, r := range id {
			if r < '0' || r > '9' {
				t.Fatalf("id %q contains non-digit %q", id, r)
			}
		}
		seen[id] = true
	}
	if len(seen) < 90 {
		t.Fatalf("only %d distinct ids out of 100", len(seen))
	}
}

func TestBuildMappings(t *testing.T) {
	m := domain.IntakeMarket{
		PolymarketID: "pm-9",
		MarketType:   domain.MarketTypeBinary,
		Outcomes: []domain.Outcome{
			{Name: "Yes", Probability: 73, HasProbability: true},
			{Name: "No"},
		},
		Tokens: []domain.Token{
			{TokenID: "tok-no", Outcome: "No", Price: 0.27},
			{TokenID: "tok-yes", Outcome: "Yes", Price: 0.73},
		},
	}

	mappings, warnings := BuildMappings(m, "123456789")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(mappings) != 2 {
		t.Fatalf("got %d mappings, want 2", len(mappings))
	}

	if mappings[0].InternalOutcomeID != "123456789-0" || mappings[1].InternalOutcomeID != "123456789-1" {
		t.Errorf("internal ids = %q, %q; want index-derived", mappings[0].InternalOutcomeID, mappings[1].InternalOutcomeID)
	}
	if mappings[0].PolymarketTokenID != "tok-yes" || mappings[1].PolymarketTokenID != "tok-no" {
		t.Errorf("token ids = %q, %q; resolution must follow labels, not position",
			mappings[0].PolymarketTokenID, mappings[1].PolymarketTokenID)
	}
	// Percentage input normalized; missing probability falls back to the
	// resolved token's price.
	if mappings[0].Probability != 0.73 {
		t.Errorf("mapping 0 probability = %v, want 0.73", mappings[0].Probability)
	}
	if mappings[1].Probability != 0.27 {
		t.Errorf("mapping 1 probability = %v, want 0.27 (token price fallback)", mappings[1].Probability)
	}
}

func TestBuildMappingsRecordsGaps(t *testing.T) {
	m := domain.IntakeMarket{
		MarketType: domain.MarketTypeBinary,
		Outcomes:   []domain.Outcome{{Name: "Yes"}, {Name: "No"}},
		Tokens: []domain.Token{
			{TokenID: "tok-a", Outcome: "A"},
			{TokenID: "tok-b", Outcome: "B"},
		},
	}

	mappings, warnings := BuildMappings(m, "111111111")
	if len(mappings) != 2 {
		t.Fatalf("got %d mappings, want 2: gaps must be recorded, not dropped", len(mappings))
	}
	for i, mp := range mappings {
		if !mp.Unresolved || mp.PolymarketTokenID != "" {
			t.Errorf("mapping %d = %+v, want unresolved with empty token id", i, mp)
		}
	}
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2", len(warnings))
	}
}

func TestBuildMappingsNameFallback(t *testing.T) {
	m := domain.IntakeMarket{
		MarketType: domain.MarketTypeMultiple,
		Outcomes:   []domain.Outcome{{}, {}},
		Tokens:     []domain.Token{{TokenID: "t0"}, {TokenID: "t1"}},
	}

	mappings, _ := BuildMappings(m, "222222222")
	if mappings[0].Name != "Outcome 1" || mappings[1].Name != "Outcome 2" {
		t.Errorf("names = %q, %q; want Outcome 1, Outcome 2", mappings[0].Name, mappings[1].Name)
	}
}

func TestSelectLegacyTokenID(t *testing.T) {
	tests := []struct {
		name   string
		market domain.IntakeMarket
		want   string
	}{
		{
			name: "resolved first outcome",
			market: domain.IntakeMarket{
				PolymarketID: "pm-1",
				Outcomes:     []domain.Outcome{{Name: "Yes"}, {Name: "No"}},
				Tokens: []domain.Token{
					{TokenID: "tok-no", Outcome: "No"},
					{TokenID: "tok-yes", Outcome: "Yes"},
				},
			},
			want: "tok-yes",
		},
		{
			name: "first token fallback",
			market: domain.IntakeMarket{
				PolymarketID: "pm-2",
				Outcomes:     []domain.Outcome{{Name: "Yes"}, {Name: "No"}},
				Tokens: []domain.Token{
					{TokenID: "tok-a", Outcome: "A"},
					{TokenID: "tok-b", Outcome: "B"},
				},
			},
			want: "tok-a",
		},
		{
			name:   "market id fallback",
			market: domain.IntakeMarket{PolymarketID: "pm-3"},
			want:   "pm-3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectLegacyTokenID(tc.market); got != tc.want {
				t.Errorf("SelectLegacyTokenID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildApprovalPayload(t *testing.T) {
	m := domain.IntakeMarket{
		PolymarketID: "pm-7",
		ConditionID:  "cond-7",
		Title:        "Will it happen?",
		MarketType:   domain.MarketTypeMultiple,
		Outcomes:     []domain.Outcome{{Name: "A"}, {Name: "B"}},
		Tokens:       []domain.Token{{TokenID: "t0"}, {TokenID: "t1"}},
		Volume:       12345,
	}

	p, warnings := BuildApprovalPayload(m, ApproveOptions{
		TypeOverride: domain.MarketTypeGroupedBinary,
		Notes:        "split into sub-markets",
	})
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if p.MarketType != domain.MarketTypeGroupedBinary {
		t.Errorf("market type = %q, want override applied", p.MarketType)
	}
	if len(p.InternalEventID) != 9 {
		t.Errorf("internal event id %q, want generated 9-digit id", p.InternalEventID)
	}
	if !strings.HasPrefix(p.Outcomes[0].InternalOutcomeID, p.InternalEventID+"-") {
		t.Errorf("outcome id %q not derived from event id %q", p.Outcomes[0].InternalOutcomeID, p.InternalEventID)
	}
	if p.LegacyTokenID != "t0" {
		t.Errorf("legacy token = %q, want t0", p.LegacyTokenID)
	}

	// Pre-existing event id is preserved.
	p2, _ := BuildApprovalPayload(m, ApproveOptions{InternalEventID: "987654321"})
	if p2.InternalEventID != "987654321" {
		t.Errorf("internal event id = %q, want caller-provided id kept", p2.InternalEventID)
	}
	if p2.MarketType != domain.MarketTypeMultiple {
		t.Errorf("market type = %q, want feed classification kept without override", p2.MarketType)
	}
}
