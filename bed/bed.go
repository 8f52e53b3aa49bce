// Package bed defines the garden bed entity and its store interface.
package bed

import (
	"time"

	"github.com/xraph/trellis/id"
)

// Bed is a collaboratively owned garden bed. The owner is recorded on the
// bed itself and is never a member row: ownership always outranks any grant.
type Bed struct {
	ID        id.BedID  `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	OwnerName string    `json:"owner_name" db:"owner_name"`
	Name      string    `json:"name" db:"name"`
	Length    int       `json:"length" db:"length"`
	Width     int       `json:"width" db:"width"`
	Public    bool      `json:"public" db:"public"`
	Hearts    []string  `json:"hearts,omitempty" db:"hearts"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Hearted reports whether userID has favorited the bed.
func (b *Bed) Hearted(userID string) bool {
	for _, u := range b.Hearts {
		if u == userID {
			return true
		}
	}
	return false
}

// ToggleHeart adds userID to the favorites if absent, removes it if present,
// and reports whether the bed is favorited afterwards.
func (b *Bed) ToggleHeart(userID string) bool {
	for i, u := range b.Hearts {
		if u == userID {
			b.Hearts = append(b.Hearts[:i], b.Hearts[i+1:]...)
			return false
		}
	}
	b.Hearts = append(b.Hearts, userID)
	return true
}
