package notification

import (
	"context"
	"time"

	"github.com/xraph/trellis/id"
)

// Store defines persistence operations for notifications.
type Store interface {
	// CreateNotification persists a new notification.
	CreateNotification(ctx context.Context, e *Entry) error

	// GetNotification retrieves a notification by ID.
	GetNotification(ctx context.Context, notifID id.NotificationID) (*Entry, error)

	// ListNotifications returns notifications matching the filter,
	// newest first.
	ListNotifications(ctx context.Context, filter *ListFilter) ([]*Entry, error)

	// MarkNotificationRead flags a notification as read.
	MarkNotificationRead(ctx context.Context, notifID id.NotificationID) error

	// DeleteNotification removes a notification by ID.
	DeleteNotification(ctx context.Context, notifID id.NotificationID) error

	// DeleteNotificationsByBed removes all notifications for a bed.
	DeleteNotificationsByBed(ctx context.Context, bedID id.BedID) error

	// PurgeNotifications removes notifications older than the given time.
	PurgeNotifications(ctx context.Context, before time.Time) (int64, error)
}
