// Package notify fans operator alerts out to chat channels (Telegram,
// Discord). The intake and hedge services call the typed helpers; operators
// choose which event kinds reach them via the events allow-list in config.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marketdesk/admind/internal/domain"
)

// Event kinds an operator can subscribe to.
const (
	EventMarketApproved   = "market.approved"
	EventMarketRejected   = "market.rejected"
	EventBulkApproval     = "market.bulk_approval"
	EventHedgeAlert       = "hedge.alert"
	EventWithdrawalReview = "withdrawal.review"
)

// Sender delivers a single rendered notification to one channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier renders domain events into operator messages and delivers them to
// every configured Sender. A channel failure is logged and does not block
// delivery to the remaining channels.
type Notifier struct {
	senders []Sender
	allowed map[string]bool
	logger  *slog.Logger
}

// New creates a Notifier. If events is empty every event kind is delivered;
// otherwise only the listed kinds pass the filter.
func New(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		allowed: allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// MarketApproved announces a single market approval.
func (n *Notifier) MarketApproved(ctx context.Context, m domain.IntakeMarket, decidedBy string) {
	n.notify(ctx, EventMarketApproved, "Market approved",
		fmt.Sprintf("%s\npolymarket_id=%s event_id=%s by=%s",
			m.Title, m.PolymarketID, m.InternalEventID, decidedBy))
}

// MarketRejected announces a rejection with its reason.
func (n *Notifier) MarketRejected(ctx context.Context, m domain.IntakeMarket, reason, decidedBy string) {
	n.notify(ctx, EventMarketRejected, "Market rejected",
		fmt.Sprintf("%s\npolymarket_id=%s reason=%q by=%s",
			m.Title, m.PolymarketID, reason, decidedBy))
}

// BulkApproval announces the outcome of a bulk approval run. It fires only
// for partial or total failures; an all-green batch stays quiet.
func (n *Notifier) BulkApproval(ctx context.Context, succeeded, total int, decidedBy string) {
	if succeeded == total {
		return
	}
	n.notify(ctx, EventBulkApproval, "Bulk approval incomplete",
		fmt.Sprintf("Bulk approve: %d/%d succeeded (by=%s)", succeeded, total, decidedBy))
}

// HedgeAlert announces an under-hedged position.
func (n *Notifier) HedgeAlert(ctx context.Context, a domain.HedgeAlert) {
	n.notify(ctx, EventHedgeAlert, "Hedge coverage below threshold",
		fmt.Sprintf("polymarket_id=%s coverage=%.1f%% threshold=%.1f%%",
			a.PolymarketID, a.Coverage*100, a.Threshold*100))
}

// WithdrawalReviewed announces a withdrawal decision.
func (n *Notifier) WithdrawalReviewed(ctx context.Context, w domain.Withdrawal, decidedBy string) {
	n.notify(ctx, EventWithdrawalReview, "Withdrawal reviewed",
		fmt.Sprintf("id=%s user=%s amount=%s %s status=%s by=%s",
			w.ID, w.UserID, w.Amount.StringFixed(2), w.Currency, w.Status, decidedBy))
}

func (n *Notifier) notify(ctx context.Context, event, title, message string) {
	if len(n.allowed) > 0 && !n.allowed[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("event", event),
		)
	}
}
