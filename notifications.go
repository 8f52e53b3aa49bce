package trellis

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/notification"
)

// ListNotifications returns the caller's notifications, newest first. The
// filter's recipient is forced to the caller; one user can never page
// through another's inbox.
func (e *Engine) ListNotifications(ctx context.Context, callerID string, f notification.ListFilter) ([]*notification.Entry, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	f.RecipientID = callerID
	out, err := e.store.ListNotifications(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	return out, nil
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, notifID id.NotificationID, callerID string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	n, err := e.store.GetNotification(ctx, notifID)
	if err != nil {
		return e.mapNotFound(err, ErrNotificationNotFound)
	}
	if n.RecipientID != callerID {
		// Do not reveal that the notification exists.
		return ErrNotificationNotFound
	}
	if err := e.store.MarkNotificationRead(ctx, notifID); err != nil {
		return e.mapNotFound(err, ErrNotificationNotFound)
	}
	return nil
}

// DeleteNotification removes one of the caller's notifications.
func (e *Engine) DeleteNotification(ctx context.Context, notifID id.NotificationID, callerID string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	n, err := e.store.GetNotification(ctx, notifID)
	if err != nil {
		return e.mapNotFound(err, ErrNotificationNotFound)
	}
	if n.RecipientID != callerID {
		return ErrNotificationNotFound
	}
	if err := e.store.DeleteNotification(ctx, notifID); err != nil {
		return e.mapNotFound(err, ErrNotificationNotFound)
	}
	return nil
}

// PurgeNotifications deletes notifications older than the cutoff and
// returns how many were removed. Intended for maintenance jobs, not
// request handlers.
func (e *Engine) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	n, err := e.store.PurgeNotifications(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("trellis: %w", err)
	}
	return n, nil
}
