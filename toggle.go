package trellis

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/plugin"
	"github.com/xraph/trellis/store"
)

// ToggleResult reports the outcome of a permission toggle.
type ToggleResult struct {
	Capability capability.Capability `json:"capability"`
	TargetKind capability.TargetKind `json:"targetKind"`
	TargetID   string                `json:"targetId"`
	Granted    bool                  `json:"granted"`
}

// TogglePermission flips a single (capability, target) cell of the bed's
// ledger. Toggling a granted cell revokes it and vice versa, so applying
// the same toggle twice restores the prior state. Concurrent toggles on
// the same cell resolve last-write-wins.
//
// Member targets require manage-members on the caller, role targets
// require manage-roles. The target must exist on the bed; a toggle never
// creates a grant for an unknown principal.
func (e *Engine) TogglePermission(ctx context.Context, bedID id.BedID, cap capability.Capability, kind capability.TargetKind, targetID, callerID string) (*ToggleResult, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if !cap.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCapability, cap)
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: target kind %q", ErrUnknownTarget, kind)
	}
	if e.config.RestrictFullControl && cap == capability.FullControl {
		return nil, fmt.Errorf("%w: full-control toggles are disabled", ErrForbidden)
	}

	required := capability.ManageMembers
	if kind == capability.TargetRole {
		required = capability.ManageRoles
	}
	if err := e.requireCapability(ctx, bedID, callerID, required); err != nil {
		return nil, err
	}

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}

	var (
		granted    bool
		recipients []string
	)
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		switch kind {
		case capability.TargetMember:
			m, err := tx.GetMember(ctx, bedID, targetID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: member %s", ErrUnknownTarget, targetID)
				}
				return err
			}
			recipients = []string{m.UserID}
		case capability.TargetRole:
			roleID, err := id.ParseRoleID(targetID)
			if err != nil {
				return fmt.Errorf("%w: role %s", ErrUnknownTarget, targetID)
			}
			r, err := tx.GetRole(ctx, roleID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: role %s", ErrUnknownTarget, targetID)
				}
				return err
			}
			if r.BedID != bedID {
				return fmt.Errorf("%w: role %s", ErrUnknownTarget, targetID)
			}
			recipients, err = e.roleHolders(ctx, tx, bedID, roleID)
			if err != nil {
				return err
			}
		}

		l, err := tx.GetLedger(ctx, bedID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Targets were found above, so the ledger must exist.
				return fmt.Errorf("trellis: ledger missing for bed %s", bedID)
			}
			return err
		}
		granted = l.Toggle(cap, kind, targetID)
		return tx.UpdateLedger(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateBed(ctx, bedID)
	if e.plugins != nil {
		e.plugins.EmitPermissionToggled(ctx, &plugin.ToggleEvent{
			BedID:      bedID,
			Capability: cap,
			Kind:       kind,
			TargetID:   targetID,
			Granted:    granted,
			ActorID:    callerID,
		})
	}
	for _, rid := range recipients {
		if rid == callerID {
			continue
		}
		e.notify(ctx, b, rid, callerID, "", notification.KindPermissionChange)
	}

	return &ToggleResult{Capability: cap, TargetKind: kind, TargetID: targetID, Granted: granted}, nil
}

// roleHolders lists the user IDs of accepted members currently holding
// roleID on the bed.
func (e *Engine) roleHolders(ctx context.Context, tx store.Tx, bedID id.BedID, roleID id.RoleID) ([]string, error) {
	members, err := tx.ListMembers(ctx, bedID)
	if err != nil {
		return nil, err
	}
	var holders []string
	for _, m := range members {
		if m.Accepted() && memberHoldsRole(m, roleID) {
			holders = append(holders, m.UserID)
		}
	}
	return holders, nil
}

// ensureLedger creates the bed's ledger on the first membership or role.
// Idempotent: an existing ledger is returned unchanged.
func (e *Engine) ensureLedger(ctx context.Context, tx store.Tx, b *bed.Bed) (*ledger.Ledger, error) {
	l, err := tx.GetLedger(ctx, b.ID)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	l = ledger.New(b.ID, b.OwnerID, b.OwnerName)
	if err := tx.CreateLedger(ctx, l); err != nil {
		return nil, err
	}
	if e.plugins != nil {
		e.plugins.EmitLedgerCreated(ctx, l)
	}
	return l, nil
}

// maybeDropLedger deletes the bed's ledger once the last member and the
// last role are gone. The ledger exists exactly while the bed has at
// least one member or role.
func (e *Engine) maybeDropLedger(ctx context.Context, tx store.Tx, bedID id.BedID) error {
	nMembers, err := tx.CountMembers(ctx, bedID)
	if err != nil {
		return err
	}
	if nMembers > 0 {
		return nil
	}
	nRoles, err := tx.CountRoles(ctx, bedID)
	if err != nil {
		return err
	}
	if nRoles > 0 {
		return nil
	}
	if err := tx.DeleteLedger(ctx, bedID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if e.plugins != nil {
		e.plugins.EmitLedgerDeleted(ctx, bedID)
	}
	return nil
}

// acceptedHolders is a small helper used by role deletion notifications.
func acceptedHolders(members []*member.Member, roleID id.RoleID) []string {
	var out []string
	for _, m := range members {
		if m.Accepted() && memberHoldsRole(m, roleID) {
			out = append(out, m.UserID)
		}
	}
	return out
}
