package domain

import "time"

// ResolutionMethod records which rule of the outcome-to-token resolver
// produced a mapping. Binary outcomes never resolve positionally.
type ResolutionMethod string

const (
	ResolutionExact       ResolutionMethod = "exact"
	ResolutionRegex       ResolutionMethod = "regex"
	ResolutionPositional  ResolutionMethod = "positional"
	ResolutionSingleToken ResolutionMethod = "single_token"
	ResolutionNone        ResolutionMethod = "none"
)

// OutcomeMapping links one internal outcome to the external token that trades
// it. TokenID is empty when resolution failed; such gaps are recorded rather
// than dropped so an admin can fix them manually before resubmitting.
type OutcomeMapping struct {
	InternalOutcomeID string           `json:"internalOutcomeId"`
	PolymarketTokenID string           `json:"polymarketTokenId,omitempty"`
	Name              string           `json:"name"`
	Probability       float64          `json:"probability"`
	Method            ResolutionMethod `json:"method"`
	Unresolved        bool             `json:"unresolved,omitempty"`
}

// ApprovalPayload is the request submitted to the listing service when an
// admin approves an intake market. MarketType and LegacyTokenID are always
// set: LegacyTokenID preserves compatibility with consumers that expect one
// representative token per market.
type ApprovalPayload struct {
	PolymarketID    string           `json:"polymarketId"`
	ConditionID     string           `json:"conditionId,omitempty"`
	InternalEventID string           `json:"internalEventId"`
	LegacyTokenID   string           `json:"legacyTokenId"`
	MarketType      MarketType       `json:"marketType"`
	Outcomes        []OutcomeMapping `json:"outcomes"`

	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Volume      float64    `json:"volume"`

	Notes string `json:"notes,omitempty"`
}

// DecisionAction is the admin action taken on an intake record.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

// IntakeDecision is the persisted audit record of one approve/reject action.
type IntakeDecision struct {
	ID              string           `json:"id"`
	PolymarketID    string           `json:"polymarketId"`
	Action          DecisionAction   `json:"action"`
	InternalEventID string           `json:"internalEventId,omitempty"`
	Mappings        []OutcomeMapping `json:"mappings,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	DecidedBy       string           `json:"decidedBy,omitempty"`
	DecidedAt       time.Time        `json:"decidedAt"`
}
