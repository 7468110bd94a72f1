package intake

import (
	"context"
	"fmt"
)

// BulkItemResult records the outcome of one item in a bulk-approval batch.
type BulkItemResult struct {
	PolymarketID string `json:"polymarketId"`
	Error        string `json:"error,omitempty"`
}

// OK reports whether the item was approved.
func (r BulkItemResult) OK() bool { return r.Error == "" }

// BulkResult aggregates a completed batch. The per-item results list, not a
// side-effecting counter, is the source of truth for the summary.
type BulkResult struct {
	Results []BulkItemResult `json:"results"`
}

// Total returns the number of items processed.
func (r BulkResult) Total() int { return len(r.Results) }

// Succeeded returns the number of items approved without error.
func (r BulkResult) Succeeded() int {
	n := 0
	for _, it := range r.Results {
		if it.OK() {
			n++
		}
	}
	return n
}

// Summary returns the partial-failure message, or "" when every item
// succeeded.
func (r BulkResult) Summary() string {
	if s, t := r.Succeeded(), r.Total(); s < t {
		return fmt.Sprintf("Bulk approve: %d/%d succeeded", s, t)
	}
	return ""
}

// ProgressFunc is invoked before each item with the 1-based position and the
// batch total.
type ProgressFunc func(current, total int)

// RunBulk applies approve to each id strictly sequentially, in the order
// given. One item at a time bounds load on the listing service and keeps
// progress reporting and failure attribution deterministic. A failing item
// never aborts the batch; its error is captured in the result instead.
//
// Context cancellation is honored between items: remaining ids are recorded
// as failed with the context error.
func RunBulk(ctx context.Context, ids []string, approve func(ctx context.Context, id string) error, progress ProgressFunc) BulkResult {
	result := BulkResult{Results: make([]BulkItemResult, 0, len(ids))}
	total := len(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			for _, rest := range ids[i:] {
				result.Results = append(result.Results, BulkItemResult{PolymarketID: rest, Error: err.Error()})
			}
			break
		}

		if progress != nil {
			progress(i+1, total)
		}

		item := BulkItemResult{PolymarketID: id}
		if err := approve(ctx, id); err != nil {
			item.Error = err.Error()
		}
		result.Results = append(result.Results, item)
	}

	return result
}
