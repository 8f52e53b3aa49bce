// Package notification defines the notification Entry entity.
package notification

import (
	"time"

	"github.com/xraph/trellis/id"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	KindMemberInvite       Kind = "member-invite"
	KindMemberConfirmation Kind = "member-confirmation"
	KindMemberRejection    Kind = "member-rejection"
	KindPermissionChange   Kind = "permission-change"
	KindRoleRemoved        Kind = "role-removed"
)

// Entry is a single notification delivered to one recipient.
type Entry struct {
	ID          id.NotificationID `json:"id" db:"id"`
	BedID       id.BedID          `json:"bed_id" db:"bed_id"`
	BedName     string            `json:"bed_name" db:"bed_name"`
	RecipientID string            `json:"recipient_id" db:"recipient_id"`
	SenderID    string            `json:"sender_id" db:"sender_id"`
	SenderName  string            `json:"sender_name" db:"sender_name"`
	Kind        Kind              `json:"kind" db:"kind"`
	Read        bool              `json:"read" db:"read"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing notifications.
type ListFilter struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Kind        Kind   `json:"kind,omitempty"`
	Unread      *bool  `json:"unread,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}
