package hedge

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/marketdesk/admind/internal/domain"
	"github.com/marketdesk/admind/internal/metrics"
)

type fakeHedgeStore struct {
	positions []domain.HedgePosition
}

func (s *fakeHedgeStore) Upsert(_ context.Context, p domain.HedgePosition) error {
	s.positions = append(s.positions, p)
	return nil
}

func (s *fakeHedgeStore) ListAll(_ context.Context) ([]domain.HedgePosition, error) {
	return s.positions, nil
}

type fakeBus struct {
	published [][]byte
}

func (b *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

type fakeAlertNotifier struct {
	alerts []domain.HedgeAlert
}

func (n *fakeAlertNotifier) HedgeAlert(_ context.Context, a domain.HedgeAlert) {
	n.alerts = append(n.alerts, a)
}

func newTestMonitor(store *fakeHedgeStore, bus *fakeBus, notifier *fakeAlertNotifier) *Monitor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMonitor(store, bus, notifier, metrics.New(), logger, 0.8, time.Minute)
}

func TestScanRaisesAlertBelowFloor(t *testing.T) {
	store := &fakeHedgeStore{positions: []domain.HedgePosition{
		{PolymarketID: "pm-ok", Exposure: 1000, HedgedNotional: 900},
		{PolymarketID: "pm-low", Exposure: 1000, HedgedNotional: 500},
	}}
	bus := &fakeBus{}
	notifier := &fakeAlertNotifier{}
	m := newTestMonitor(store, bus, notifier)

	if err := m.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	status := m.Status()
	if len(status.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(status.Alerts))
	}
	a := status.Alerts[0]
	if a.PolymarketID != "pm-low" {
		t.Errorf("alert market = %q, want pm-low", a.PolymarketID)
	}
	if a.Coverage != 0.5 {
		t.Errorf("coverage = %v, want 0.5", a.Coverage)
	}
	if len(bus.published) != 1 {
		t.Errorf("bus publishes = %d, want 1", len(bus.published))
	}
	if len(notifier.alerts) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.alerts))
	}
}

func TestScanAlertsOncePerExcursion(t *testing.T) {
	store := &fakeHedgeStore{positions: []domain.HedgePosition{
		{PolymarketID: "pm-low", Exposure: 1000, HedgedNotional: 100},
	}}
	notifier := &fakeAlertNotifier{}
	m := newTestMonitor(store, &fakeBus{}, notifier)

	for i := 0; i < 3; i++ {
		if err := m.Scan(context.Background()); err != nil {
			t.Fatalf("Scan %d: %v", i, err)
		}
	}
	if len(notifier.alerts) != 1 {
		t.Fatalf("notifications = %d, want 1 (no repeats while still low)", len(notifier.alerts))
	}

	// Recovery resets the latch; the next drop alerts again.
	store.positions[0].HedgedNotional = 900
	if err := m.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	store.positions[0].HedgedNotional = 100
	if err := m.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(notifier.alerts) != 2 {
		t.Fatalf("notifications = %d, want 2 after recovery and re-drop", len(notifier.alerts))
	}
}

func TestZeroExposureIsFullyCovered(t *testing.T) {
	store := &fakeHedgeStore{positions: []domain.HedgePosition{
		{PolymarketID: "pm-flat", Exposure: 0, HedgedNotional: 0},
	}}
	m := newTestMonitor(store, &fakeBus{}, &fakeAlertNotifier{})

	if err := m.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if alerts := m.Status().Alerts; len(alerts) != 0 {
		t.Errorf("alerts = %v, want none for flat position", alerts)
	}
}
