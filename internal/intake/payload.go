package intake

import (
	"fmt"
	"math/rand/v2"

	"github.com/marketdesk/admind/internal/domain"
)

// ApproveOptions carries the admin's per-approval inputs.
type ApproveOptions struct {
	// InternalEventID links the market to a pre-existing internal event.
	// When empty a fresh id is generated.
	InternalEventID string
	// TypeOverride reclassifies the market (MULTIPLE vs GROUPED_BINARY)
	// before approval. Zero value keeps the feed's classification.
	TypeOverride domain.MarketType
	Notes        string
	DecidedBy    string
}

// ResolutionWarning flags an outcome whose token could not be resolved. The
// mapping is still recorded with an empty token id for manual follow-up.
type ResolutionWarning struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func (w ResolutionWarning) String() string {
	return fmt.Sprintf("outcome %d (%q): no token resolved", w.Index, w.Name)
}

// NewInternalEventID generates a random 9-digit numeric event id, matching
// the id space the trading core allocates for admin-created events.
func NewInternalEventID() string {
	return fmt.Sprintf("%09d", rand.Int64N(1_000_000_000))
}

// outcomeName returns the display name for the outcome at idx, falling back
// to "Outcome {idx+1}" when the feed omitted it.
func outcomeName(o domain.Outcome, idx int) string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("Outcome %d", idx+1)
}

// BuildMappings resolves every outcome of m to its token and synthesizes the
// internal outcome ids. Internal ids are derived purely from the index, so
// they are stable across rebuilds: {internalEventID}-{index}.
func BuildMappings(m domain.IntakeMarket, internalEventID string) ([]domain.OutcomeMapping, []ResolutionWarning) {
	mappings := make([]domain.OutcomeMapping, 0, len(m.Outcomes))
	var warnings []ResolutionWarning

	for i, o := range m.Outcomes {
		res := ResolveToken(m, i, o.Name)

		prob := o.Probability
		present := o.HasProbability
		if !present && res.Resolved() {
			// Fall back to the resolved token's price.
			for _, t := range m.Tokens {
				if t.TokenID == res.TokenID {
					prob, present = t.Price, true
					break
				}
			}
		}
		normalized := 0.0
		if present {
			if p, ok := NormalizeProbability(prob); ok {
				normalized = p
			}
		}

		mapping := domain.OutcomeMapping{
			InternalOutcomeID: fmt.Sprintf("%s-%d", internalEventID, i),
			PolymarketTokenID: res.TokenID,
			Name:              outcomeName(o, i),
			Probability:       normalized,
			Method:            res.Method,
			Unresolved:        !res.Resolved(),
		}
		if mapping.Unresolved {
			warnings = append(warnings, ResolutionWarning{Index: i, Name: mapping.Name})
		}
		mappings = append(mappings, mapping)
	}

	return mappings, warnings
}

// SelectLegacyTokenID picks the single representative token id kept for
// downstream consumers that predate per-outcome mappings: the first outcome's
// resolved token, else the first token, else the market's own id.
func SelectLegacyTokenID(m domain.IntakeMarket) string {
	if len(m.Outcomes) > 0 {
		if res := ResolveToken(m, 0, m.Outcomes[0].Name); res.Resolved() {
			return res.TokenID
		}
	}
	if len(m.Tokens) > 0 && m.Tokens[0].TokenID != "" {
		return m.Tokens[0].TokenID
	}
	return m.PolymarketID
}

// BuildApprovalPayload assembles the listing-service request for one intake
// market. Resolution gaps are reported as warnings, not errors; the payload
// still carries the affected mappings with empty token ids.
func BuildApprovalPayload(m domain.IntakeMarket, opts ApproveOptions) (domain.ApprovalPayload, []ResolutionWarning) {
	eventID := opts.InternalEventID
	if eventID == "" {
		eventID = NewInternalEventID()
	}

	marketType := m.MarketType
	if opts.TypeOverride.Valid() {
		marketType = opts.TypeOverride
	}
	if !marketType.Valid() {
		marketType = domain.MarketTypeBinary
	}

	mappings, warnings := BuildMappings(m, eventID)

	return domain.ApprovalPayload{
		PolymarketID:    m.PolymarketID,
		ConditionID:     m.ConditionID,
		InternalEventID: eventID,
		LegacyTokenID:   SelectLegacyTokenID(m),
		MarketType:      marketType,
		Outcomes:        mappings,
		Title:           m.Title,
		Description:     m.Description,
		Categories:      m.Categories,
		ImageURL:        m.ImageURL,
		EndDate:         m.EndDate,
		Volume:          m.Volume,
		Notes:           opts.Notes,
	}, warnings
}
