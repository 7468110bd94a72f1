package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNextDelayResetsAfterLiveSession(t *testing.T) {
	d := nextDelay(0, false)
	if d != reconnectDelay {
		t.Fatalf("first retry delay = %v, want %v", d, reconnectDelay)
	}

	// Repeated dial failures back off up to the cap.
	for i := 0; i < 10; i++ {
		d = nextDelay(d, false)
	}
	if d != maxReconnectDelay {
		t.Fatalf("delay after repeated failures = %v, want cap %v", d, maxReconnectDelay)
	}

	// A session that got past the dial starts the excursion over.
	if got := nextDelay(d, true); got != reconnectDelay {
		t.Errorf("delay after live session = %v, want %v", got, reconnectDelay)
	}
}

func TestConsumeReportsDialOutcome(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"markets"}`))
		_ = conn.Close()
	}))
	defer srv.Close()

	var got []string
	p := NewPushClient("ws"+strings.TrimPrefix(srv.URL, "http"), func(kind string) {
		got = append(got, kind)
	}, discardLogger())

	connected, _ := p.consume(context.Background())
	if !connected {
		t.Fatal("consume() connected = false for a reachable server")
	}
	if len(got) != 1 || got[0] != "markets" {
		t.Errorf("handler calls = %v, want [markets]", got)
	}
}

func TestConsumeDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p := NewPushClient("ws://127.0.0.1:1", nil, discardLogger())
	connected, err := p.consume(ctx)
	if connected || err == nil {
		t.Fatalf("consume() = %v, %v; want dial failure", connected, err)
	}
}
