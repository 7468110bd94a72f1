package polymarket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// ChangeHandler is called when a market or orderbook change notification is
// received. kind is "markets" or "orderbook".
type ChangeHandler func(kind string)

// changeMsg is the only push-channel payload the intake queue cares about.
// Everything else on the wire is ignored.
type changeMsg struct {
	Type string `json:"type"`
}

// PushClient consumes the Polymarket CLOB WebSocket purely as a reload
// trigger: each valid change notification invokes the handler, which re-syncs
// the intake feed. The channel is advisory: it carries no backpressure or
// ordering guarantee, redundant triggers are fine because a re-sync is
// idempotent, and its unavailability degrades to manual refresh only.
type PushClient struct {
	wsURL   string
	handler ChangeHandler
	logger  *slog.Logger
}

// NewPushClient creates a push-channel consumer for the given WebSocket URL.
//
// wsURL is the CLOB WebSocket endpoint, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewPushClient(wsURL string, handler ChangeHandler, logger *slog.Logger) *PushClient {
	return &PushClient{
		wsURL:   wsURL,
		handler: handler,
		logger:  logger.With(slog.String("component", "polymarket_push")),
	}
}

// Run connects and consumes notifications until the context is cancelled,
// reconnecting with exponential backoff on any failure. A session that made
// it past the dial starts the backoff over, so one early flap does not pin
// later reconnects at the cap. It never returns a connection error to the
// caller; the push channel must not take the service down.
func (p *PushClient) Run(ctx context.Context) {
	var delay time.Duration

	for {
		connected, err := p.consume(ctx)
		delay = nextDelay(delay, connected)
		if err != nil {
			p.logger.WarnContext(ctx, "push channel disconnected",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", delay),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// nextDelay returns the wait before the next dial attempt. Consecutive dial
// failures double it up to the cap; a connected session resets it.
func nextDelay(prev time.Duration, connected bool) time.Duration {
	if connected || prev <= 0 {
		return reconnectDelay
	}
	next := prev * 2
	if next > maxReconnectDelay {
		next = maxReconnectDelay
	}
	return next
}

// consume runs one connection lifetime: dial, ping loop, read loop. The
// returned bool reports whether the dial succeeded.
func (p *PushClient) consume(ctx context.Context) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.wsURL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Close the connection when the context ends so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, err
		}
		p.dispatch(ctx, data)
	}
}

// dispatch parses one frame and fires the handler for known change types.
// Malformed payloads are dropped silently; the channel is never authoritative.
func (p *PushClient) dispatch(ctx context.Context, data []byte) {
	var msg changeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "markets", "orderbook":
		p.logger.DebugContext(ctx, "change notification", slog.String("type", msg.Type))
		if p.handler != nil {
			p.handler(msg.Type)
		}
	}
}
