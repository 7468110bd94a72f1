package domain

import "time"

// IntakeStatus represents the review lifecycle state of an intake candidate.
type IntakeStatus string

const (
	IntakeStatusPending  IntakeStatus = "pending"
	IntakeStatusApproved IntakeStatus = "approved"
	IntakeStatusRejected IntakeStatus = "rejected"
)

// Decided reports whether the record has already been approved or rejected.
// Decided records are excluded from bulk-selection batches.
func (s IntakeStatus) Decided() bool {
	return s == IntakeStatusApproved || s == IntakeStatusRejected
}

// MarketType classifies how an external market resolves.
type MarketType string

const (
	// MarketTypeBinary is a single Yes/No market.
	MarketTypeBinary MarketType = "BINARY"
	// MarketTypeMultiple is one market with mutually exclusive named outcomes.
	MarketTypeMultiple MarketType = "MULTIPLE"
	// MarketTypeGroupedBinary is a set of independent Yes/No sub-markets
	// presented as one listing.
	MarketTypeGroupedBinary MarketType = "GROUPED_BINARY"
)

// Valid reports whether t is one of the known market types.
func (t MarketType) Valid() bool {
	switch t {
	case MarketTypeBinary, MarketTypeMultiple, MarketTypeGroupedBinary:
		return true
	}
	return false
}

// Outcome is one human-facing resolution value of an external market, in
// canonical display order. Probability may be a 0-1 fraction, a 0-100
// percentage, or absent (negative sentinel) depending on the upstream feed.
type Outcome struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	// HasProbability distinguishes a genuine 0 from a missing value.
	HasProbability bool `json:"hasProbability"`
}

// Token is a tradable instrument on the external venue. The Outcome label is
// free text and may differ from the outcome list in casing or whitespace; it
// may also be empty.
type Token struct {
	TokenID string  `json:"tokenId"`
	Outcome string  `json:"outcome,omitempty"`
	Price   float64 `json:"price,omitempty"`
}

// IntakeMarket is an externally-sourced candidate market awaiting admin
// review. The outcome and token slices are read-only input from the feed;
// their array orders are NOT guaranteed to align.
type IntakeMarket struct {
	PolymarketID string       `json:"polymarketId"`
	ConditionID  string       `json:"conditionId,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Outcomes     []Outcome    `json:"outcomes"`
	Tokens       []Token      `json:"tokens"`
	MarketType   MarketType   `json:"marketType"`
	Status       IntakeStatus `json:"status"`

	// Event metadata snapshot carried into the approval payload.
	Categories []string   `json:"categories,omitempty"`
	ImageURL   string     `json:"imageUrl,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	Volume     float64    `json:"volume"`

	// Populated once the record is decided.
	InternalEventID string `json:"internalEventId,omitempty"`
	RejectReason    string `json:"rejectReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IntakeFilter narrows intake list queries.
type IntakeFilter struct {
	Search string
	Status IntakeStatus // empty means all
}
