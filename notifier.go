package trellis

import (
	"context"

	"github.com/xraph/trellis/notification"
)

// Notifier delivers notifications to affected principals. Delivery is
// fire-and-forget: implementations log failures themselves, and the engine
// never blocks correctness on a notification landing.
type Notifier interface {
	Notify(ctx context.Context, e *notification.Entry)
}

// noopNotifier is the default Notifier when none is configured.
type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, *notification.Entry) {}
