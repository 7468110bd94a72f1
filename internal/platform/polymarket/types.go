package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/marketdesk/admind/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Several list-valued fields arrive JSON-encoded inside strings.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"condition_id"`
	Slug          string   `json:"slug"`
	Active        flexBool `json:"active"`
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // e.g. "[\"0.5\",\"0.5\"]"
	Tokens        []Token  `json:"tokens"`
	Volume        string   `json:"volume"`
	NegRisk       bool     `json:"neg_risk"`
	EndDateISO    string   `json:"end_date_iso"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Category      string   `json:"category"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// Token represents a token entry inside the Gamma API market response.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price"`
	Winner  bool    `json:"winner"`
}

// decodeStringList decodes Gamma's JSON-in-a-string list fields; a malformed
// field yields nil rather than an error, since the feed is advisory input.
func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

// classify derives the intake market type from the Gamma record. Two-outcome
// Yes/No markets are BINARY; everything else defaults to MULTIPLE and can be
// reclassified as GROUPED_BINARY by the reviewing admin.
func (m *APIMarket) classify(outcomes []string) domain.MarketType {
	if len(outcomes) == 2 {
		a := strings.ToLower(strings.TrimSpace(outcomes[0]))
		b := strings.ToLower(strings.TrimSpace(outcomes[1]))
		if (a == "yes" && b == "no") || (a == "no" && b == "yes") {
			return domain.MarketTypeBinary
		}
	}
	return domain.MarketTypeMultiple
}

// ToIntakeMarket converts a Gamma API market into a pending intake candidate.
func (m *APIMarket) ToIntakeMarket() domain.IntakeMarket {
	names := decodeStringList(m.Outcomes)
	prices := decodeStringList(m.OutcomePrices)

	outcomes := make([]domain.Outcome, 0, len(names))
	for i, name := range names {
		o := domain.Outcome{Name: name}
		if i < len(prices) {
			if p, err := strconv.ParseFloat(prices[i], 64); err == nil {
				o.Probability = p
				o.HasProbability = true
			}
		}
		outcomes = append(outcomes, o)
	}

	tokens := make([]domain.Token, 0, len(m.Tokens))
	for _, t := range m.Tokens {
		tokens = append(tokens, domain.Token{
			TokenID: t.TokenID,
			Outcome: t.Outcome,
			Price:   t.Price,
		})
	}

	im := domain.IntakeMarket{
		PolymarketID: m.ID,
		ConditionID:  m.ConditionID,
		Title:        m.Question,
		Description:  m.Description,
		Outcomes:     outcomes,
		Tokens:       tokens,
		MarketType:   m.classify(names),
		Status:       domain.IntakeStatusPending,
		ImageURL:     m.Image,
	}
	if m.Category != "" {
		im.Categories = []string{m.Category}
	}
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		im.Volume = v
	}
	if t, err := time.Parse(time.RFC3339, m.EndDateISO); err == nil {
		im.EndDate = &t
	}
	if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		im.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
		im.UpdatedAt = t
	}
	return im
}
