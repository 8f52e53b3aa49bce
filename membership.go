package trellis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/store"
)

// MemberView is the membership projection returned to callers.
type MemberView struct {
	UserID     string        `json:"userId"`
	Username   string        `json:"username"`
	RoleID     *id.RoleID    `json:"roleId,omitempty"`
	Status     member.Status `json:"status"`
	InvitedAt  time.Time     `json:"invitedAt"`
	AcceptedAt *time.Time    `json:"acceptedAt,omitempty"`
}

func viewOf(m *member.Member) *MemberView {
	return &MemberView{
		UserID:     m.UserID,
		Username:   m.Username,
		RoleID:     m.RoleID,
		Status:     m.Status,
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
	}
}

// InviteMember creates a pending membership for the invitee and notifies
// them. Requires manage-members on the caller. The bed owner can never be
// invited: ownership already carries the full catalog and a parallel
// membership row would make resolution ambiguous.
func (e *Engine) InviteMember(ctx context.Context, bedID id.BedID, inviteeID, inviteeName, callerID string) (*MemberView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.ManageMembers); err != nil {
		return nil, err
	}

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}
	if inviteeID == b.OwnerID {
		return nil, ErrOwnerMembership
	}
	if _, err := e.store.GetMember(ctx, bedID, inviteeID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("trellis: %w", err)
	}

	m := &member.Member{
		BedID:     bedID,
		UserID:    inviteeID,
		Username:  inviteeName,
		Status:    member.StatusPending,
		InvitedAt: time.Now().UTC(),
	}
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateMember(ctx, m); err != nil {
			return err
		}
		_, err := e.ensureLedger(ctx, tx, b)
		return err
	})
	if err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitMemberInvited(ctx, m)
	}
	e.notify(ctx, b, inviteeID, callerID, "", notification.KindMemberInvite)
	return viewOf(m), nil
}

// AcceptInvite confirms a pending membership. On acceptance the member
// receives the baseline grants so a fresh member can post and interact
// without the owner touching the ledger first. The bed owner is notified.
func (e *Engine) AcceptInvite(ctx context.Context, bedID id.BedID, userID string) (*MemberView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}

	var m *member.Member
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		m, err = tx.GetMember(ctx, bedID, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNoPendingInvite
			}
			return err
		}
		if m.Status != member.StatusPending {
			return ErrNoPendingInvite
		}

		now := time.Now().UTC()
		m.Status = member.StatusAccepted
		m.AcceptedAt = &now
		if err := tx.UpdateMember(ctx, m); err != nil {
			return err
		}

		l, err := tx.GetLedger(ctx, bedID)
		if err != nil {
			return err
		}
		for _, cap := range e.config.baselineGrants() {
			l.Grant(cap, capability.TargetMember, userID)
		}
		return tx.UpdateLedger(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateMember(ctx, bedID, userID)
	if e.plugins != nil {
		e.plugins.EmitMemberAccepted(ctx, m)
	}
	e.notify(ctx, b, b.OwnerID, userID, m.Username, notification.KindMemberConfirmation)
	return viewOf(m), nil
}

// RejectInvite declines a pending membership. The row and any grants made
// against the invitee while they were pending are removed, and the owner
// is notified.
func (e *Engine) RejectInvite(ctx context.Context, bedID id.BedID, userID string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return e.mapNotFound(err, ErrBedNotFound)
	}

	var username string
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		m, err := tx.GetMember(ctx, bedID, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNoPendingInvite
			}
			return err
		}
		if m.Status != member.StatusPending {
			return ErrNoPendingInvite
		}
		username = m.Username
		return e.removeMemberTx(ctx, tx, bedID, userID)
	})
	if err != nil {
		return err
	}

	e.notify(ctx, b, b.OwnerID, userID, username, notification.KindMemberRejection)
	return nil
}

// RemoveMember deletes a membership. Allowed for the member themselves
// (leaving the bed) or for a caller holding manage-members. All of the
// target's direct grants are pruned in the same transaction so a deleted
// member can never reappear in the ledger.
func (e *Engine) RemoveMember(ctx context.Context, bedID id.BedID, targetUserID, callerID string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if callerID != targetUserID {
		if err := e.requireCapability(ctx, bedID, callerID, capability.ManageMembers); err != nil {
			return err
		}
	}

	err := e.store.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetMember(ctx, bedID, targetUserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrMemberNotFound
			}
			return err
		}
		return e.removeMemberTx(ctx, tx, bedID, targetUserID)
	})
	if err != nil {
		return err
	}

	e.invalidateMember(ctx, bedID, targetUserID)
	if e.plugins != nil {
		e.plugins.EmitMemberRemoved(ctx, bedID, targetUserID)
	}
	return nil
}

// removeMemberTx deletes the membership row, prunes the ledger and drops
// it if this was the last member and no roles remain.
func (e *Engine) removeMemberTx(ctx context.Context, tx store.Tx, bedID id.BedID, userID string) error {
	if err := tx.DeleteMember(ctx, bedID, userID); err != nil {
		return err
	}
	l, err := tx.GetLedger(ctx, bedID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	l.PruneMember(userID)
	if err := tx.UpdateLedger(ctx, l); err != nil {
		return err
	}
	return e.maybeDropLedger(ctx, tx, bedID)
}

// AssignRole sets the member's role. Requires manage-members. The role
// must exist on the same bed.
func (e *Engine) AssignRole(ctx context.Context, bedID id.BedID, userID string, roleID id.RoleID, callerID string) (*MemberView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.ManageMembers); err != nil {
		return nil, err
	}

	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrRoleNotFound)
	}
	if r.BedID != bedID {
		return nil, ErrRoleNotFound
	}

	m, err := e.store.GetMember(ctx, bedID, userID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrMemberNotFound)
	}
	m.RoleID = &roleID
	if err := e.store.UpdateMember(ctx, m); err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	e.invalidateMember(ctx, bedID, userID)
	return viewOf(m), nil
}

// UnassignRole clears the member's role. Requires manage-members.
func (e *Engine) UnassignRole(ctx context.Context, bedID id.BedID, userID, callerID string) (*MemberView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if err := e.requireCapability(ctx, bedID, callerID, capability.ManageMembers); err != nil {
		return nil, err
	}

	m, err := e.store.GetMember(ctx, bedID, userID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrMemberNotFound)
	}
	m.RoleID = nil
	if err := e.store.UpdateMember(ctx, m); err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	e.invalidateMember(ctx, bedID, userID)
	return viewOf(m), nil
}

// ListMembers returns the bed's memberships. The owner sees every row.
// Members see accepted rows plus their own pending row; pending invites
// of other users are not visible to them.
func (e *Engine) ListMembers(ctx context.Context, bedID id.BedID, callerID string) ([]*MemberView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}

	isOwner := b.OwnerID == callerID
	if !isOwner {
		if _, err := e.store.GetMember(ctx, bedID, callerID); err != nil {
			return nil, e.mapNotFound(err, ErrNotAMember)
		}
	}

	members, err := e.store.ListMembers(ctx, bedID)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}

	out := make([]*MemberView, 0, len(members))
	for _, m := range members {
		if !isOwner && !m.Accepted() && m.UserID != callerID {
			continue
		}
		out = append(out, viewOf(m))
	}
	return out, nil
}

// ListMemberships returns every membership userID holds, across all beds.
func (e *Engine) ListMemberships(ctx context.Context, userID string) ([]*member.Member, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	out, err := e.store.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	return out, nil
}
