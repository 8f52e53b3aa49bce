// Package member defines the bed membership entity and its store interface.
package member

import (
	"time"

	"github.com/xraph/trellis/id"
)

// Status is the lifecycle state of a membership.
type Status string

// Membership states. A pending member has been invited but has not yet
// accepted; only accepted members hold grants.
const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

// Member is one user's membership on one bed, keyed by (BedID, UserID).
// RoleID is nil while the member holds no role.
type Member struct {
	BedID      id.BedID   `json:"bed_id" db:"bed_id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Username   string     `json:"username" db:"username"`
	RoleID     *id.RoleID `json:"role_id,omitempty" db:"role_id"`
	Status     Status     `json:"status" db:"status"`
	InvitedAt  time.Time  `json:"invited_at" db:"invited_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
}

// Accepted reports whether the membership has been confirmed.
func (m *Member) Accepted() bool { return m.Status == StatusAccepted }
