package bed

import (
	"context"

	"github.com/xraph/trellis/id"
)

// Store defines persistence operations for beds.
type Store interface {
	// CreateBed persists a new bed.
	CreateBed(ctx context.Context, b *Bed) error

	// GetBed retrieves a bed by ID.
	GetBed(ctx context.Context, bedID id.BedID) (*Bed, error)

	// UpdateBed persists changes to a bed.
	UpdateBed(ctx context.Context, b *Bed) error

	// DeleteBed removes a bed by ID.
	DeleteBed(ctx context.Context, bedID id.BedID) error

	// ListBedsByOwner returns all beds owned by the given user.
	ListBedsByOwner(ctx context.Context, ownerID string) ([]*Bed, error)
}
