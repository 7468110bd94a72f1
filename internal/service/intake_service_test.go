package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/intake"
	"github.com/marketdesk/admind/internal/metrics"
)

type fakeIntakeStore struct {
	markets map[string]domain.IntakeMarket
}

func newFakeIntakeStore(markets ...domain.IntakeMarket) *fakeIntakeStore {
	s := &fakeIntakeStore{markets: make(map[string]domain.IntakeMarket)}
	for _, m := range markets {
		s.markets[m.PolymarketID] = m
	}
	return s
}

func (s *fakeIntakeStore) Upsert(_ context.Context, m domain.IntakeMarket) error {
	s.markets[m.PolymarketID] = m
	return nil
}

func (s *fakeIntakeStore) UpsertBatch(ctx context.Context, markets []domain.IntakeMarket) error {
	for _, m := range markets {
		if err := s.Upsert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeIntakeStore) GetByID(_ context.Context, id string) (domain.IntakeMarket, error) {
	m, ok := s.markets[id]
	if !ok {
		return domain.IntakeMarket{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *fakeIntakeStore) List(_ context.Context, _ domain.IntakeFilter, _ domain.ListOpts) ([]domain.IntakeMarket, error) {
	out := make([]domain.IntakeMarket, 0, len(s.markets))
	for _, m := range s.markets {
		out = append(out, m)
	}
	return out, nil
}

func (s *fakeIntakeStore) Count(_ context.Context, _ domain.IntakeFilter) (int64, error) {
	return int64(len(s.markets)), nil
}

func (s *fakeIntakeStore) MarkApproved(_ context.Context, id, eventID string, mappings []domain.OutcomeMapping) error {
	m, ok := s.markets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Status.Decided() {
		return domain.ErrAlreadyDecided
	}
	m.Status = domain.IntakeStatusApproved
	m.InternalEventID = eventID
	s.markets[id] = m
	return nil
}

func (s *fakeIntakeStore) MarkRejected(_ context.Context, id, reason string) error {
	m, ok := s.markets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Status.Decided() {
		return domain.ErrAlreadyDecided
	}
	m.Status = domain.IntakeStatusRejected
	m.RejectReason = reason
	s.markets[id] = m
	return nil
}

type fakeDecisionStore struct {
	inserted []domain.IntakeDecision
}

func (s *fakeDecisionStore) Insert(_ context.Context, d domain.IntakeDecision) error {
	s.inserted = append(s.inserted, d)
	return nil
}

func (s *fakeDecisionStore) ListByMarket(_ context.Context, id string) ([]domain.IntakeDecision, error) {
	var out []domain.IntakeDecision
	for _, d := range s.inserted {
		if d.PolymarketID == id {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeDecisionStore) ListRecent(_ context.Context, limit int) ([]domain.IntakeDecision, error) {
	if limit > len(s.inserted) {
		limit = len(s.inserted)
	}
	return s.inserted[:limit], nil
}

type fakeAuditStore struct {
	events []string
}

func (s *fakeAuditStore) Log(_ context.Context, event string, _ map[string]any) error {
	s.events = append(s.events, event)
	return nil
}

type fakeCache struct {
	entries     map[string]domain.IntakeMarket
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.IntakeMarket)}
}

func (c *fakeCache) Get(_ context.Context, id string) (domain.IntakeMarket, error) {
	m, ok := c.entries[id]
	if !ok {
		return domain.IntakeMarket{}, domain.ErrNotFound
	}
	return m, nil
}

func (c *fakeCache) Set(_ context.Context, m domain.IntakeMarket) error {
	c.entries[m.PolymarketID] = m
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type fakeBus struct {
	published []string
}

func (b *fakeBus) Publish(_ context.Context, channel string, _ []byte) error {
	b.published = append(b.published, channel)
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type fakeLocks struct {
	held     bool
	acquired int
}

func (l *fakeLocks) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	l.acquired++
	return func() {}, nil
}

type fakeListing struct {
	approvals  []domain.ApprovalPayload
	rejections []string
	failFor    map[string]error
}

func (l *fakeListing) SubmitApproval(_ context.Context, p domain.ApprovalPayload) error {
	if err := l.failFor[p.PolymarketID]; err != nil {
		return err
	}
	l.approvals = append(l.approvals, p)
	return nil
}

func (l *fakeListing) SubmitRejection(_ context.Context, id, _ string) error {
	if err := l.failFor[id]; err != nil {
		return err
	}
	l.rejections = append(l.rejections, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingMarket(id string) domain.IntakeMarket {
	return domain.IntakeMarket{
		PolymarketID: id,
		Title:        "Will it settle yes?",
		Outcomes: []domain.Outcome{
			{Name: "Yes", Probability: 0.6, HasProbability: true},
			{Name: "No", Probability: 0.4, HasProbability: true},
		},
		Tokens: []domain.Token{
			{TokenID: "tok-yes", Outcome: "Yes"},
			{TokenID: "tok-no", Outcome: "No"},
		},
		MarketType: domain.MarketTypeBinary,
		Status:     domain.IntakeStatusPending,
	}
}

type intakeFixture struct {
	svc       *IntakeService
	store     *fakeIntakeStore
	decisions *fakeDecisionStore
	cache     *fakeCache
	bus       *fakeBus
	locks     *fakeLocks
	listing   *fakeListing
}

func newIntakeFixture(markets ...domain.IntakeMarket) *intakeFixture {
	f := &intakeFixture{
		store:     newFakeIntakeStore(markets...),
		decisions: &fakeDecisionStore{},
		cache:     newFakeCache(),
		bus:       &fakeBus{},
		locks:     &fakeLocks{},
		listing:   &fakeListing{failFor: make(map[string]error)},
	}
	f.svc = NewIntakeService(
		f.store, f.decisions, &fakeAuditStore{},
		f.cache, f.bus, f.locks, f.listing,
		nil, nil, nil,
		metrics.New(), testLogger(),
	)
	return f
}

func TestApprove(t *testing.T) {
	f := newIntakeFixture(pendingMarket("pm-1"))

	payload, warnings, err := f.svc.Approve(context.Background(), "pm-1", intake.ApproveOptions{DecidedBy: "alice"})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(payload.InternalEventID) != 9 {
		t.Errorf("InternalEventID = %q, want 9 digits", payload.InternalEventID)
	}

	if len(f.listing.approvals) != 1 {
		t.Fatalf("listing approvals = %d, want 1", len(f.listing.approvals))
	}
	if got := f.store.markets["pm-1"].Status; got != domain.IntakeStatusApproved {
		t.Errorf("status = %q, want approved", got)
	}
	if len(f.decisions.inserted) != 1 || f.decisions.inserted[0].Action != domain.DecisionApprove {
		t.Errorf("decisions = %+v, want one approve", f.decisions.inserted)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != "pm-1" {
		t.Errorf("invalidated = %v, want [pm-1]", f.cache.invalidated)
	}
	if len(f.bus.published) != 1 || f.bus.published[0] != domain.ChannelIntake {
		t.Errorf("published = %v, want one intake signal", f.bus.published)
	}
}

func TestApproveAlreadyDecided(t *testing.T) {
	m := pendingMarket("pm-1")
	m.Status = domain.IntakeStatusApproved
	f := newIntakeFixture(m)

	_, _, err := f.svc.Approve(context.Background(), "pm-1", intake.ApproveOptions{})
	if !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("err = %v, want ErrAlreadyDecided", err)
	}
	if len(f.listing.approvals) != 0 {
		t.Errorf("listing was called for a decided record")
	}
}

func TestApproveListingFailureKeepsPending(t *testing.T) {
	f := newIntakeFixture(pendingMarket("pm-1"))
	f.listing.failFor["pm-1"] = errors.New("listing service down")

	_, _, err := f.svc.Approve(context.Background(), "pm-1", intake.ApproveOptions{})
	if err == nil {
		t.Fatal("Approve succeeded despite listing failure")
	}
	if got := f.store.markets["pm-1"].Status; got != domain.IntakeStatusPending {
		t.Errorf("status = %q, want pending (retryable)", got)
	}
	if len(f.decisions.inserted) != 0 {
		t.Errorf("decision recorded despite listing failure")
	}
}

func TestReject(t *testing.T) {
	f := newIntakeFixture(pendingMarket("pm-1"))

	if err := f.svc.Reject(context.Background(), "pm-1", "duplicate listing", "alice"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got := f.store.markets["pm-1"]
	if got.Status != domain.IntakeStatusRejected || got.RejectReason != "duplicate listing" {
		t.Errorf("record = %+v, want rejected with reason", got)
	}
	if len(f.decisions.inserted) != 1 || f.decisions.inserted[0].Action != domain.DecisionReject {
		t.Errorf("decisions = %+v, want one reject", f.decisions.inserted)
	}
}

func TestBulkApprovePartialFailure(t *testing.T) {
	ids := []string{"pm-1", "pm-2", "pm-3", "pm-4", "pm-5"}
	var markets []domain.IntakeMarket
	for _, id := range ids {
		markets = append(markets, pendingMarket(id))
	}
	f := newIntakeFixture(markets...)
	f.listing.failFor["pm-2"] = errors.New("boom")
	f.listing.failFor["pm-4"] = errors.New("boom")

	var progress []string
	result, err := f.svc.BulkApprove(context.Background(), ids, "alice", func(current, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", current, total))
	})
	if err != nil {
		t.Fatalf("BulkApprove: %v", err)
	}

	if result.Succeeded() != 3 || result.Total() != 5 {
		t.Fatalf("got %d/%d, want 3/5", result.Succeeded(), result.Total())
	}
	if got, want := result.Summary(), "Bulk approve: 3/5 succeeded"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	// Results preserve input order and attribute failures to the right ids.
	for i, r := range result.Results {
		if r.PolymarketID != ids[i] {
			t.Errorf("result[%d] = %q, want %q", i, r.PolymarketID, ids[i])
		}
		wantErr := ids[i] == "pm-2" || ids[i] == "pm-4"
		if r.OK() == wantErr {
			t.Errorf("result[%d] OK=%v, want failure=%v", i, r.OK(), wantErr)
		}
	}

	want := []string{"1/5", "2/5", "3/5", "4/5", "5/5"}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %q, want %q", i, progress[i], want[i])
		}
	}

	// Failed markets stay pending for retry.
	if got := f.store.markets["pm-2"].Status; got != domain.IntakeStatusPending {
		t.Errorf("pm-2 status = %q, want pending", got)
	}
	if got := f.store.markets["pm-3"].Status; got != domain.IntakeStatusApproved {
		t.Errorf("pm-3 status = %q, want approved", got)
	}
}

func TestBulkApproveLockHeld(t *testing.T) {
	f := newIntakeFixture(pendingMarket("pm-1"))
	f.locks.held = true

	_, err := f.svc.BulkApprove(context.Background(), []string{"pm-1"}, "alice", nil)
	if !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("err = %v, want ErrLockHeld", err)
	}
}

func TestBulkApproveEmptyBatch(t *testing.T) {
	f := newIntakeFixture()

	result, err := f.svc.BulkApprove(context.Background(), nil, "alice", nil)
	if err != nil {
		t.Fatalf("BulkApprove: %v", err)
	}
	if result.Total() != 0 {
		t.Errorf("Total() = %d, want 0", result.Total())
	}
	if f.locks.acquired != 0 {
		t.Errorf("lock acquired for empty batch")
	}
}

func TestListReloadIsIdempotent(t *testing.T) {
	f := newIntakeFixture(pendingMarket("pm-1"), pendingMarket("pm-2"))

	byID := func(ms []domain.IntakeMarket) map[string]domain.IntakeMarket {
		out := make(map[string]domain.IntakeMarket, len(ms))
		for _, m := range ms {
			out[m.PolymarketID] = m
		}
		return out
	}

	first, firstTotal, err := f.svc.List(context.Background(), domain.IntakeFilter{}, domain.ListOpts{Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	second, secondTotal, err := f.svc.List(context.Background(), domain.IntakeFilter{}, domain.ListOpts{Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if firstTotal != secondTotal {
		t.Errorf("totals differ between loads: %d vs %d", firstTotal, secondTotal)
	}
	if !reflect.DeepEqual(byID(first), byID(second)) {
		t.Errorf("second load differs from first:\n%+v\nvs\n%+v", first, second)
	}
	for id, m := range byID(second) {
		if m.Status != domain.IntakeStatusPending {
			t.Errorf("%s status = %q after two reads, want pending", id, m.Status)
		}
	}
}

func TestGetUsesCache(t *testing.T) {
	f := newIntakeFixture(pendingMarket("pm-1"))

	// First read populates the cache.
	if _, err := f.svc.Get(context.Background(), "pm-1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := f.cache.entries["pm-1"]; !ok {
		t.Fatal("cache not populated after read")
	}

	// Mutate the store behind the cache; the cached copy should win.
	m := f.store.markets["pm-1"]
	m.Title = "changed"
	f.store.markets["pm-1"] = m

	got, err := f.svc.Get(context.Background(), "pm-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title == "changed" {
		t.Error("read bypassed the cache")
	}
}
