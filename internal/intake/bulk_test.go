package intake

import (
	"context"
	"errors"
	"testing"
)

func TestRunBulkPartialFailure(t *testing.T) {
	ids := []string{"m1", "m2", "m3", "m4", "m5"}
	failing := map[string]bool{"m2": true, "m4": true}

	var processed []string
	var progress [][2]int

	result := RunBulk(context.Background(), ids,
		func(_ context.Context, id string) error {
			processed = append(processed, id)
			if failing[id] {
				return errors.New("listing service: 502")
			}
			return nil
		},
		func(cur, total int) {
			progress = append(progress, [2]int{cur, total})
		},
	)

	if result.Total() != 5 || result.Succeeded() != 3 {
		t.Fatalf("got %d/%d, want 3/5", result.Succeeded(), result.Total())
	}
	if got := result.Summary(); got != "Bulk approve: 3/5 succeeded" {
		t.Errorf("summary = %q", got)
	}

	// Strictly sequential, original order.
	for i, id := range ids {
		if processed[i] != id {
			t.Fatalf("processed[%d] = %q, want %q", i, processed[i], id)
		}
	}

	// Progress emitted before each item.
	if len(progress) != 5 {
		t.Fatalf("got %d progress updates, want 5", len(progress))
	}
	for i, p := range progress {
		if p[0] != i+1 || p[1] != 5 {
			t.Errorf("progress[%d] = %v, want {%d, 5}", i, p, i+1)
		}
	}

	// Per-item attribution.
	for _, it := range result.Results {
		if failing[it.PolymarketID] == it.OK() {
			t.Errorf("item %s: ok=%v, want failure=%v", it.PolymarketID, it.OK(), failing[it.PolymarketID])
		}
	}
}

func TestRunBulkAllSucceedNoSummary(t *testing.T) {
	result := RunBulk(context.Background(), []string{"a", "b"},
		func(context.Context, string) error { return nil }, nil)
	if result.Summary() != "" {
		t.Errorf("summary = %q, want empty on full success", result.Summary())
	}
}

func TestRunBulkEmpty(t *testing.T) {
	result := RunBulk(context.Background(), nil, func(context.Context, string) error {
		t.Fatal("approve called for empty batch")
		return nil
	}, nil)
	if result.Total() != 0 {
		t.Errorf("total = %d, want 0", result.Total())
	}
}

func TestRunBulkContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	result := RunBulk(ctx, []string{"a", "b", "c"},
		func(context.Context, string) error {
			calls++
			cancel() // cancel after the first item
			return nil
		}, nil)

	if calls != 1 {
		t.Fatalf("approve called %d times, want 1", calls)
	}
	if result.Total() != 3 || result.Succeeded() != 1 {
		t.Fatalf("got %d/%d, want 1/3 with remaining items marked failed", result.Succeeded(), result.Total())
	}
}
