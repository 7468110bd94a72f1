package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/metrics"
)

type fakeSource struct {
	pages [][]domain.IntakeMarket
	calls int
	err   error
}

func (f *fakeSource) ListCandidates(_ context.Context, _, offset int) ([]domain.IntakeMarket, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	page := offset / pageSize
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

type fakeStore struct {
	upserted []domain.IntakeMarket
}

func (s *fakeStore) Upsert(_ context.Context, m domain.IntakeMarket) error {
	s.upserted = append(s.upserted, m)
	return nil
}

func (s *fakeStore) UpsertBatch(ctx context.Context, markets []domain.IntakeMarket) error {
	s.upserted = append(s.upserted, markets...)
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, _ string) (domain.IntakeMarket, error) {
	return domain.IntakeMarket{}, domain.ErrNotFound
}

func (s *fakeStore) List(_ context.Context, _ domain.IntakeFilter, _ domain.ListOpts) ([]domain.IntakeMarket, error) {
	return nil, nil
}

func (s *fakeStore) Count(_ context.Context, _ domain.IntakeFilter) (int64, error) { return 0, nil }

func (s *fakeStore) MarkApproved(_ context.Context, _, _ string, _ []domain.OutcomeMapping) error {
	return nil
}

func (s *fakeStore) MarkRejected(_ context.Context, _, _ string) error { return nil }

type fakeBus struct {
	published int
}

func (b *fakeBus) Publish(_ context.Context, _ string, _ []byte) error {
	b.published++
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func newTestSyncer(source *fakeSource, store *fakeStore, bus *fakeBus) *Syncer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSyncer(source, store, bus, metrics.New(), logger, time.Minute)
}

func makeMarkets(n int) []domain.IntakeMarket {
	out := make([]domain.IntakeMarket, n)
	for i := range out {
		out[i] = domain.IntakeMarket{PolymarketID: "pm", Status: domain.IntakeStatusPending}
	}
	return out
}

func TestSyncPaginatesUntilShortPage(t *testing.T) {
	source := &fakeSource{pages: [][]domain.IntakeMarket{
		makeMarkets(pageSize),
		makeMarkets(pageSize),
		makeMarkets(7),
	}}
	store := &fakeStore{}
	bus := &fakeBus{}
	s := newTestSyncer(source, store, bus)

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if want := 2*pageSize + 7; len(store.upserted) != want {
		t.Errorf("upserted = %d, want %d", len(store.upserted), want)
	}
	if source.calls != 3 {
		t.Errorf("source calls = %d, want 3 (stop on short page)", source.calls)
	}
	if bus.published != 1 {
		t.Errorf("reload signals = %d, want 1", bus.published)
	}
}

func TestSyncEmptyFeedPublishesNothing(t *testing.T) {
	store := &fakeStore{}
	bus := &fakeBus{}
	s := newTestSyncer(&fakeSource{}, store, bus)

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(store.upserted) != 0 {
		t.Errorf("upserted = %d, want 0", len(store.upserted))
	}
	if bus.published != 0 {
		t.Errorf("reload signals = %d, want 0", bus.published)
	}
}

func TestSyncPropagatesSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("gamma down")}
	s := newTestSyncer(source, &fakeStore{}, &fakeBus{})

	if err := s.Sync(context.Background()); err == nil {
		t.Fatal("Sync succeeded despite source error")
	}
}

func TestTriggerCoalesces(t *testing.T) {
	s := newTestSyncer(&fakeSource{}, &fakeStore{}, &fakeBus{})

	// Repeated triggers while none has been consumed must not block.
	for i := 0; i < 10; i++ {
		s.Trigger()
	}
	select {
	case <-s.trigger:
	default:
		t.Fatal("no trigger queued")
	}
	select {
	case <-s.trigger:
		t.Fatal("triggers did not coalesce")
	default:
	}
}
