// Package store defines the aggregate persistence interface. Each subsystem
// (bed, member, role, ledger, notification) defines its own store interface.
// The composite Store composes them all and adds transaction support.
// Backends: Postgres, SQLite, MongoDB, and Memory.
package store

import (
	"context"
	"errors"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/role"
)

// ErrNotFound is the sentinel every backend wraps when an entity is
// missing. The engine maps it onto its public error vocabulary.
var ErrNotFound = errors.New("not found")

// Tx is the set of entity operations available inside a transaction.
// Every multi-row consistency update the engine performs runs against a Tx
// so the ledger can never drift from the membership and role stores.
type Tx interface {
	bed.Store
	member.Store
	role.Store
	ledger.Store
	notification.Store
}

// Store is the aggregate persistence interface.
// A single backend (postgres, sqlite, mongo, memory) implements all of it.
type Store interface {
	Tx

	// WithinTx runs fn inside a single transaction. If fn returns an
	// error the transaction is rolled back and the error returned.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
