package domain

import "time"

// HedgePosition tracks, per listed market, how much of the platform's
// internal exposure is hedged on the external venue.
type HedgePosition struct {
	InternalEventID string    `json:"internalEventId"`
	PolymarketID    string    `json:"polymarketId"`
	TokenID         string    `json:"tokenId"`
	Exposure        float64   `json:"exposure"`       // net internal liability, USD
	HedgedNotional  float64   `json:"hedgedNotional"` // offsetting size held externally, USD
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Coverage returns hedged/exposure, or 1 when there is nothing to hedge.
func (p HedgePosition) Coverage() float64 {
	if p.Exposure <= 0 {
		return 1
	}
	return p.HedgedNotional / p.Exposure
}

// HedgeAlert is raised when a position's coverage drops below the configured
// threshold.
type HedgeAlert struct {
	InternalEventID string    `json:"internalEventId"`
	PolymarketID    string    `json:"polymarketId"`
	Coverage        float64   `json:"coverage"`
	Threshold       float64   `json:"threshold"`
	RaisedAt        time.Time `json:"raisedAt"`
}

// HedgeStatus is the monitor snapshot served to the admin console.
type HedgeStatus struct {
	Positions   []HedgePosition `json:"positions"`
	Alerts      []HedgeAlert    `json:"alerts"`
	MinCoverage float64         `json:"minCoverage"`
	CheckedAt   time.Time       `json:"checkedAt"`
}
