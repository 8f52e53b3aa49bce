package trellis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/store"
)

// BedInput carries the caller-editable bed attributes.
type BedInput struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
	Width  int    `json:"width"`
	Public bool   `json:"public"`
}

// BedView is a bed as presented to a caller, annotated with the caller's
// relationship to it.
type BedView struct {
	Bed     *bed.Bed `json:"bed"`
	Role    string   `json:"role"`
	Hearted bool     `json:"hearted"`
	Pending bool     `json:"pending,omitempty"`
}

// Caller relationship labels on a BedView.
const (
	RelOwner  = "owner"
	RelMember = "member"
	RelGuest  = "guest"
)

// CreateBed creates a new bed owned by the caller. No ledger is created
// yet; it appears with the first membership or role.
func (e *Engine) CreateBed(ctx context.Context, in BedInput, ownerID, ownerName string) (*bed.Bed, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("trellis: bed name is required")
	}

	b := &bed.Bed{
		ID:        id.NewBedID(),
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Name:      name,
		Length:    in.Length,
		Width:     in.Width,
		Public:    in.Public,
	}
	if err := e.store.CreateBed(ctx, b); err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	return b, nil
}

// GetBed returns a bed for the caller. Private beds are visible only to
// the owner and members; to everyone else the bed does not exist.
func (e *Engine) GetBed(ctx context.Context, bedID id.BedID, callerID string) (*BedView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}

	view := &BedView{Bed: b, Role: RelGuest, Hearted: b.Hearted(callerID)}
	if b.OwnerID == callerID {
		view.Role = RelOwner
		return view, nil
	}

	m, err := e.store.GetMember(ctx, bedID, callerID)
	switch {
	case err == nil:
		view.Role = RelMember
		view.Pending = !m.Accepted()
		return view, nil
	case errors.Is(err, store.ErrNotFound):
		if !b.Public {
			// Hide private beds from outsiders.
			return nil, ErrBedNotFound
		}
		return view, nil
	default:
		return nil, fmt.Errorf("trellis: %w", err)
	}
}

// UpdateBed changes the bed's attributes. Owner only.
func (e *Engine) UpdateBed(ctx context.Context, bedID id.BedID, in BedInput, callerID string) (*bed.Bed, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return nil, e.mapNotFound(err, ErrBedNotFound)
	}
	if b.OwnerID != callerID {
		return nil, fmt.Errorf("%w: only the owner can update a bed", ErrForbidden)
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		b.Name = name
	}
	if in.Length > 0 {
		b.Length = in.Length
	}
	if in.Width > 0 {
		b.Width = in.Width
	}
	b.Public = in.Public

	if err := e.store.UpdateBed(ctx, b); err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	return b, nil
}

// DeleteBed removes the bed and everything hanging off it: memberships,
// roles, the ledger and its notifications, all in one transaction. Owner
// only.
func (e *Engine) DeleteBed(ctx context.Context, bedID id.BedID, callerID string) error {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	b, err := e.store.GetBed(ctx, bedID)
	if err != nil {
		return e.mapNotFound(err, ErrBedNotFound)
	}
	if b.OwnerID != callerID {
		return fmt.Errorf("%w: only the owner can delete a bed", ErrForbidden)
	}

	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.DeleteMembersByBed(ctx, bedID); err != nil {
			return err
		}
		if err := tx.DeleteRolesByBed(ctx, bedID); err != nil {
			return err
		}
		if err := tx.DeleteLedger(ctx, bedID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.DeleteNotificationsByBed(ctx, bedID); err != nil {
			return err
		}
		return tx.DeleteBed(ctx, bedID)
	})
	if err != nil {
		return err
	}

	e.invalidateBed(ctx, bedID)
	return nil
}

// ToggleFavorite flips the caller's heart on a bed and reports whether the
// bed is favorited afterwards. Any caller who can see the bed may heart it.
func (e *Engine) ToggleFavorite(ctx context.Context, bedID id.BedID, callerID string) (bool, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	if _, err := e.GetBed(ctx, bedID, callerID); err != nil {
		return false, err
	}

	var hearted bool
	err := e.store.WithinTx(ctx, func(tx store.Tx) error {
		b, err := tx.GetBed(ctx, bedID)
		if err != nil {
			return err
		}
		hearted = b.ToggleHeart(callerID)
		return tx.UpdateBed(ctx, b)
	})
	if err != nil {
		return false, fmt.Errorf("trellis: %w", err)
	}
	return hearted, nil
}

// ListBedsFor returns every bed the user can work in: beds they own and
// beds where they hold a membership. Pending invitations are included and
// flagged so the caller can surface them separately.
func (e *Engine) ListBedsFor(ctx context.Context, userID string) ([]*BedView, error) {
	ctx, cancel := e.opCtx(ctx)
	defer cancel()

	owned, err := e.store.ListBedsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	out := make([]*BedView, 0, len(owned))
	for _, b := range owned {
		out = append(out, &BedView{Bed: b, Role: RelOwner, Hearted: b.Hearted(userID)})
	}

	memberships, err := e.store.ListMembershipsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}
	for _, m := range memberships {
		b, err := e.store.GetBed(ctx, m.BedID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Bed deletion cascades memberships, so a miss here is
				// a transient read during a concurrent delete.
				continue
			}
			return nil, fmt.Errorf("trellis: %w", err)
		}
		out = append(out, &BedView{
			Bed:     b,
			Role:    RelMember,
			Hearted: b.Hearted(userID),
			Pending: m.Status == member.StatusPending,
		})
	}
	return out, nil
}
