package trellis

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/role"
	"github.com/xraph/trellis/store"
)

// CreateRole adds a role to the bed. Requires manage-roles. Titles are
// unique per bed, compared case-insensitively.
func (e *Engine) CreateRole(ctx context.Context, bedID id.BedID, title string, duties []string, callerID string) (*role.Role, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.ManageRoles); err != nil {
		return nil, err
	}

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}

	r := &role.Role{
		ID:     id.NewRoleID(),
		BedID:  bedID,
		Title:  title,
		Duties: newDuties(duties),
	}
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetRoleByTitle(ctx, bedID, title); err == nil {
			return fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.CreateRole(ctx, r); err != nil {
			return err
		}
		_, err := e.ensureLedger(ctx, tx, b)
		return err
	})
	if err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	return r, nil
}

// UpdateRole renames a role and replaces its duty list. Requires
// manage-roles. The new title must not collide with another role on the
// bed; renaming a role to its own title (any casing) is allowed.
func (e *Engine) UpdateRole(ctx context.Context, bedID id.BedID, roleID id.RoleID, title string, duties []string, callerID string) (*role.Role, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.ManageRoles); err != nil {
		return nil, err
	}

	var r *role.Role
	err := e.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		r, err = tx.GetRole(ctx, roleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRoleNotFound
			}
			return err
		}
		if r.BedID != bedID {
			return ErrRoleNotFound
		}

		if !role.TitleEquals(r.Title, title) {
			if _, err := tx.GetRoleByTitle(ctx, bedID, title); err == nil {
				return fmt.Errorf("%w: %q", ErrDuplicateTitle, title)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}

		r.Title = title
		r.Duties = newDuties(duties)
		return tx.UpdateRole(ctx, r)
	})
	if err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitRoleUpdated(ctx, r)
	}
	return r, nil
}

// DeleteRole removes a role. In the same transaction every member holding
// the role loses the reference and every ledger grant made to the role is
// pruned, so the role ID can never resolve to capabilities again. Members
// who held the role are notified.
func (e *Engine) DeleteRole(ctx context.Context, bedID id.BedID, roleID id.RoleID, callerID string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.ManageRoles); err != nil {
		return err
	}

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return e.mapNotFound(err, ErrBedNotFound)
	}

	var holders []string
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		r, err := tx.GetRole(ctx, roleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRoleNotFound
			}
			return err
		}
		if r.BedID != bedID {
			return ErrRoleNotFound
		}

		members, err := tx.ListMembers(ctx, bedID)
		if err != nil {
			return err
		}
		holders = acceptedHolders(members, roleID)

		if err := tx.DeleteRole(ctx, roleID); err != nil {
			return err
		}
		if err := tx.ClearRoleRefs(ctx, bedID, roleID); err != nil {
			return err
		}

		l, err := tx.GetLedger(ctx, bedID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		l.PruneRole(roleID)
		if err := tx.UpdateLedger(ctx, l); err != nil {
			return err
		}
		return e.maybeDropLedger(ctx, tx, bedID)
	})
	if err != nil {
		return err
	}

	e.invalidateBed(ctx, bedID)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	for _, rid := range holders {
		if rid == callerID {
			continue
		}
		e.notify(ctx, b, rid, callerID, "", notification.KindRoleRemoved)
	}
	return nil
}

// GetRole returns a single role on the bed. Caller must be the owner or
// a member.
func (e *Engine) GetRole(ctx context.Context, bedID id.BedID, roleID id.RoleID, callerID string) (*role.Role, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireMembership(ctx, bedID, callerID); err != nil {
		return nil, err
	}

	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrRoleNotFound)
	}
	if r.BedID != bedID {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

// ListRoles returns all roles on the bed. Caller must be the owner or a
// member.
func (e *Engine) ListRoles(ctx context.Context, bedID id.BedID, callerID string) ([]*role.Role, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireMembership(ctx, bedID, callerID); err != nil {
		return nil, err
	}

	roles, err := e.store.ListRoles(ctx, bedID)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	return roles, nil
}

// requireMembership checks that callerID is the bed owner or has a
// membership row, without requiring any capability.
func (e *Engine) requireMembership(ctx context.Context, bedID id.BedID, callerID string) error {
	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return e.mapNotFound(err, ErrBedNotFound)
	}
	if b.OwnerID == callerID {
		return nil
	}
	if _, err := e.store.GetMember(ctx, bedID, callerID); err != nil {
		return e.mapNotFound(err, ErrNotAMember)
	}
	return nil
}

// newDuties builds duty entries with fresh IDs from raw values.
func newDuties(values []string) []role.Duty {
	if len(values) == 0 {
		return nil
	}
	out := make([]role.Duty, 0, len(values))
	for _, v := range values {
		out = append(out, role.Duty{ID: id.NewDutyID(), Value: v})
	}
	return out
}
