package ledger

import (
	"context"

	"github.com/xraph/trellis/id"
)

// Store defines persistence operations for permission ledgers.
// There is at most one ledger per bed, keyed by bed ID.
type Store interface {
	// CreateLedger persists a new ledger.
	CreateLedger(ctx context.Context, l *Ledger) error

	// GetLedger retrieves the ledger for a bed.
	GetLedger(ctx context.Context, bedID id.BedID) (*Ledger, error)

	// UpdateLedger persists changes to a ledger.
	UpdateLedger(ctx context.Context, l *Ledger) error

	// DeleteLedger removes the ledger for a bed.
	DeleteLedger(ctx context.Context, bedID id.BedID) error
}
