package trellis

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/store"
)

func TestCreateBedRequiresName(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	if _, err := eng.CreateBed(ctx, BedInput{Name: "   "}, "owner", "Olive"); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestGetBedVisibility(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	private := newTestBed(t, eng, false)
	public := newTestBed(t, eng, true)
	addMember(t, eng, private, "u1")

	v, err := eng.GetBed(ctx, private.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if v.Role != RelOwner {
		t.Fatalf("expected owner relation, got %s", v.Role)
	}

	v, err = eng.GetBed(ctx, private.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Role != RelMember || v.Pending {
		t.Fatalf("expected accepted member relation, got %+v", v)
	}

	// Private beds do not exist for strangers.
	if _, err := eng.GetBed(ctx, private.ID, "ghost"); !errors.Is(err, ErrBedNotFound) {
		t.Fatalf("expected ErrBedNotFound, got %v", err)
	}
	// Public beds are visible to anyone as guest.
	v, err = eng.GetBed(ctx, public.ID, "ghost")
	if err != nil {
		t.Fatal(err)
	}
	if v.Role != RelGuest {
		t.Fatalf("expected guest relation, got %s", v.Role)
	}
}

func TestGetBedPendingFlag(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	if _, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner"); err != nil {
		t.Fatal(err)
	}

	v, err := eng.GetBed(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Role != RelMember || !v.Pending {
		t.Fatalf("expected pending member view, got %+v", v)
	}
}

func TestUpdateBedOwnerOnly(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	if _, err := eng.UpdateBed(ctx, b.ID, BedInput{Name: "carrots"}, "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := eng.UpdateBed(ctx, b.ID, BedInput{Name: "carrots", Length: 6}, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "carrots" || updated.Length != 6 {
		t.Fatalf("unexpected bed after update: %+v", updated)
	}
	if updated.Width != b.Width {
		t.Fatal("zero width should leave the old value")
	}
}

func TestDeleteBedCascades(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")
	r, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.DeleteBed(ctx, b.ID, "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member delete, got %v", err)
	}
	if err := eng.DeleteBed(ctx, b.ID, "owner"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetBed(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected bed gone, got %v", err)
	}
	if _, err := s.GetMember(ctx, b.ID, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected membership gone, got %v", err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected role gone, got %v", err)
	}
	if _, err := s.GetLedger(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ledger gone, got %v", err)
	}
	entries, err := s.ListNotifications(ctx, &notification.ListFilter{RecipientID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected bed notifications purged, got %d", len(entries))
	}
}

func TestToggleFavorite(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	public := newTestBed(t, eng, true)
	private := newTestBed(t, eng, false)

	hearted, err := eng.ToggleFavorite(ctx, public.ID, "fan")
	if err != nil {
		t.Fatal(err)
	}
	if !hearted {
		t.Fatal("first toggle should heart")
	}
	hearted, err = eng.ToggleFavorite(ctx, public.ID, "fan")
	if err != nil {
		t.Fatal(err)
	}
	if hearted {
		t.Fatal("second toggle should unheart")
	}

	// Invisible beds cannot be hearted.
	if _, err := eng.ToggleFavorite(ctx, private.ID, "fan"); !errors.Is(err, ErrBedNotFound) {
		t.Fatalf("expected ErrBedNotFound, got %v", err)
	}
}

func TestListBedsFor(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	owned := newTestBed(t, eng, false)

	other, err := eng.CreateBed(ctx, BedInput{Name: "peppers"}, "neighbor", "Ned")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.InviteMember(ctx, other.ID, "owner", "Olive", "neighbor"); err != nil {
		t.Fatal(err)
	}

	views, err := eng.ListBedsFor(ctx, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 beds, got %d", len(views))
	}
	byID := map[string]*BedView{}
	for _, v := range views {
		byID[v.Bed.ID.String()] = v
	}
	if v := byID[owned.ID.String()]; v == nil || v.Role != RelOwner {
		t.Fatalf("owned bed missing or mislabeled: %+v", v)
	}
	if v := byID[other.ID.String()]; v == nil || v.Role != RelMember || !v.Pending {
		t.Fatalf("pending membership missing or mislabeled: %+v", v)
	}
}

func TestNotificationOwnership(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	if _, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner"); err != nil {
		t.Fatal(err)
	}

	entries, err := eng.ListNotifications(ctx, "u1", notification.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(entries))
	}
	nid := entries[0].ID

	// Another user cannot read, mark or delete it.
	if err := eng.MarkNotificationRead(ctx, nid, "owner"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
	if err := eng.DeleteNotification(ctx, nid, "owner"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}

	if err := eng.MarkNotificationRead(ctx, nid, "u1"); err != nil {
		t.Fatal(err)
	}
	unread := false
	entries, err = eng.ListNotifications(ctx, "u1", notification.ListFilter{Unread: &unread})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].Read {
		t.Fatalf("expected one read notification, got %+v", entries)
	}
	if err := eng.DeleteNotification(ctx, nid, "u1"); err != nil {
		t.Fatal(err)
	}
}

func TestCapabilityEnforcementMatrix(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")
	addMember(t, eng, b, "u2")

	// manage-members gates invites and removals but not role writes.
	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageMembers, capability.TargetMember, "u1", "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.InviteMember(ctx, b.ID, "u3", "Uri", "u1"); err != nil {
		t.Fatalf("delegated invite failed: %v", err)
	}
	if err := eng.RemoveMember(ctx, b.ID, "u2", "u1"); err != nil {
		t.Fatalf("delegated removal failed: %v", err)
	}
	if _, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("manage-members should not grant role writes, got %v", err)
	}
}
