// Package notify provides a store-backed notifier. It persists each entry
// to the notification store so recipients can read it later.
package notify

import (
	"context"
	"log/slog"

	"github.com/xraph/trellis/notification"
)

// Notifier writes notifications to a notification store. Delivery is best
// effort: failures are logged and never surfaced to the caller.
type Notifier struct {
	store  notification.Store
	logger *slog.Logger
}

// New creates a store-backed notifier.
func New(store notification.Store, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: store, logger: logger}
}

// Notify persists the entry. A storage failure is logged and swallowed.
func (n *Notifier) Notify(ctx context.Context, e *notification.Entry) {
	if err := n.store.CreateNotification(ctx, e); err != nil {
		n.logger.Warn("notification delivery failed",
			slog.String("notification_id", e.ID.String()),
			slog.String("recipient_id", e.RecipientID),
			slog.String("kind", string(e.Kind)),
			slog.Any("error", err),
		)
	}
}
