// Package role defines bed roles and their store interface.
package role

import (
	"strings"
	"time"

	"github.com/xraph/trellis/id"
)

// Duty is a single task item on a role's duty list. Duties keep their own
// IDs so the outer application can check them off individually.
type Duty struct {
	ID    id.DutyID `json:"id" db:"id"`
	Value string    `json:"value" db:"value"`
}

// Role is a named grant target on a bed. Titles are unique per bed,
// case-insensitively. Role IDs are random and never reused, so a deleted
// role's grants can never leak to a later role.
type Role struct {
	ID        id.RoleID `json:"id" db:"id"`
	BedID     id.BedID  `json:"bed_id" db:"bed_id"`
	Title     string    `json:"title" db:"title"`
	Duties    []Duty    `json:"duties,omitempty" db:"duties"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TitleEquals compares role titles the way the uniqueness rule does.
func TitleEquals(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
