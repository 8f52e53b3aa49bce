package trellis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/plugin"
	"github.com/xraph/trellis/store"
)

// Engine is the central permission engine for garden beds. It resolves a
// user's effective capabilities on a bed, maintains the per-bed permission
// ledger through membership and role lifecycle changes, and fires
// extension hooks.
type Engine struct {
	store    store.Store
	notifier Notifier
	cache    Cache
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   Config
}

// NewEngine creates a new Trellis engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		notifier: noopNotifier{},
		logger:   slog.Default(),
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("trellis: store is required")
	}
	if e.notifier == nil {
		e.notifier = noopNotifier{}
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// opCtx applies the configured per-operation timeout.
func (e *Engine) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.OpTimeout > 0 {
		return context.WithTimeout(ctx, e.config.OpTimeout)
	}
	return ctx, func() {}
}

// Resolve computes the effective capability set of userID on bedID.
// This is the hot path. Without a cache, results are recomputed from the
// stores on every call: a check observes the grants as they are now. With
// a cache configured, hits are served from it and every mutation path
// invalidates the affected bed.
//
// The owner always resolves to the full catalog. A user with no membership
// row gets ErrNotAMember. Everyone else gets the union of their direct
// grants and the grants of their current role.
func (e *Engine) Resolve(ctx context.Context, bedID id.BedID, userID string) (capability.Set, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if e.plugins != nil {
		e.plugins.EmitBeforeResolve(ctx, bedID, userID)
	}

	if e.cache != nil {
		if set, ok := e.cache.Get(ctx, bedID, userID); ok {
			if e.plugins != nil {
				e.plugins.EmitAfterResolve(ctx, bedID, userID, set)
			}
			return set, nil
		}
	}

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}

	var result capability.Set
	if b.OwnerID == userID {
		result = capability.Full()
	} else {
		result, err = e.resolveMember(ctx, bedID, userID)
		if err != nil {
			return nil, err
		}
	}

	if e.cache != nil {
		e.cache.Set(ctx, bedID, userID, result)
	}
	if e.plugins != nil {
		e.plugins.EmitAfterResolve(ctx, bedID, userID, result)
	}
	return result, nil
}

func (e *Engine) resolveMember(ctx context.Context, bedID id.BedID, userID string) (capability.Set, error) {
	m, err := e.store.GetMember(ctx, bedID, userID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrNotAMember)
	}

	l, err := e.store.GetLedger(ctx, bedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A bed with members must have a ledger. Fail open to an
			// empty set rather than denying the bed exists.
			e.logger.Error("ledger missing for bed with members",
				slog.String("bed_id", bedID.String()),
				slog.String("user_id", userID),
			)
			return capability.NewSet(), nil
		}
		return nil, fmt.Errorf("trellis: load ledger: %w", err)
	}

	roleID := id.Nil
	if m.RoleID != nil {
		roleID = *m.RoleID
		if _, err := e.store.GetRole(ctx, roleID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("trellis: load role: %w", err)
			}
			// Dangling role reference. The maintainer clears these on
			// role deletion, so this indicates a consistency defect.
			e.logger.Error("member references deleted role",
				slog.String("bed_id", bedID.String()),
				slog.String("user_id", userID),
				slog.String("role_id", roleID.String()),
			)
			roleID = id.Nil
		}
	}

	return l.CapabilitiesFor(m.UserID, roleID), nil
}

// Allowed reports whether userID holds cap on bedID. ErrNotAMember and
// ErrBedNotFound still surface as errors; only a plain missing capability
// collapses to false.
func (e *Engine) Allowed(ctx context.Context, bedID id.BedID, userID string, cap capability.Capability) (bool, error) {
	set, err := e.Resolve(ctx, bedID, userID)
	if err != nil {
		return false, err
	}
	return set.Has(cap), nil
}

// ListLedger returns the bed's permission ledger. Full control required.
func (e *Engine) ListLedger(ctx context.Context, bedID id.BedID, callerID string) (*ledger.Ledger, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.FullControl); err != nil {
		return nil, err
	}

	l, err := e.store.GetLedger(ctx, bedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No members and no roles yet: present an empty ledger
			// rather than an error.
			b, berr := e.store.GetBed(ctx, bedID)
			if berr != nil {
				return nil, e.mapNotFound(berr, ErrBedNotFound)
			}
			return ledger.New(bedID, b.OwnerID, b.OwnerName), nil
		}
		return nil, fmt.Errorf("trellis: load ledger: %w", err)
	}
	return l, nil
}

// requireCapability resolves the caller and fails with ErrForbidden when
// the capability is missing. Owners pass every check.
func (e *Engine) requireCapability(ctx context.Context, bedID id.BedID, callerID string, cap capability.Capability) error {
	set, err := e.Resolve(ctx, bedID, callerID)
	if err != nil {
		return err
	}
	if !set.Has(cap) {
		return fmt.Errorf("%w: %s", ErrForbidden, cap)
	}
	return nil
}

// mapNotFound converts the store's not-found sentinel to a domain error,
// passing other errors through wrapped.
func (e *Engine) mapNotFound(err error, domain error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain
	}
	return fmt.Errorf("trellis: %w", err)
}

// invalidateBed drops every cached resolution for the bed.
func (e *Engine) invalidateBed(ctx context.Context, bedID id.BedID) {
	if e.cache != nil {
		e.cache.InvalidateBed(ctx, bedID)
	}
}

// invalidateMember drops the cached resolution for one user on the bed.
func (e *Engine) invalidateMember(ctx context.Context, bedID id.BedID, userID string) {
	if e.cache != nil {
		e.cache.InvalidateMember(ctx, bedID, userID)
	}
}

// isOwner reports whether userID owns the bed, loading it if needed.
func (e *Engine) isOwner(ctx context.Context, bedID id.BedID, userID string) (bool, error) {
	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return false, e.mapNotFound(err, ErrBedNotFound)
	}
	return b.OwnerID == userID, nil
}

// notify builds and delivers a notification about an event on bed b.
// Delivery is fire-and-forget; the Notifier owns failure handling.
func (e *Engine) notify(ctx context.Context, b *bed.Bed, recipientID, senderID, senderName string, kind notification.Kind) {
	e.notifier.Notify(ctx, &notification.Entry{
		ID:          id.NewNotificationID(),
		BedID:       b.ID,
		BedName:     b.Name,
		RecipientID: recipientID,
		SenderID:    senderID,
		SenderName:  senderName,
		Kind:        kind,
		CreatedAt:   time.Now().UTC(),
	})
}

// memberHoldsRole reports whether m currently holds roleID.
func memberHoldsRole(m *member.Member, roleID id.RoleID) bool {
	return m.RoleID != nil && m.RoleID.String() == roleID.String()
}
