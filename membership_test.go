package trellis

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/store"
)

func TestInviteMember(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)

	v, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner")
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != member.StatusPending {
		t.Fatalf("expected pending status, got %s", v.Status)
	}

	// The ledger appears with the first membership.
	if _, err := s.GetLedger(ctx, b.ID); err != nil {
		t.Fatalf("expected ledger after first invite: %v", err)
	}

	// The invitee is notified.
	entries, err := eng.ListNotifications(ctx, "u1", notification.ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Kind != notification.KindMemberInvite {
		t.Fatalf("expected one member-invite notification, got %+v", entries)
	}
}

func TestInviteMemberGuards(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)

	if _, err := eng.InviteMember(ctx, b.ID, "owner", "Olive", "owner"); !errors.Is(err, ErrOwnerMembership) {
		t.Fatalf("expected ErrOwnerMembership, got %v", err)
	}

	if _, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner"); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}

	// Members without manage-members cannot invite.
	addMember(t, eng, b, "u2")
	if _, err := eng.InviteMember(ctx, b.ID, "u3", "Uri", "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAcceptInvite(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)

	if _, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner"); err != nil {
		t.Fatal(err)
	}
	v, err := eng.AcceptInvite(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != member.StatusAccepted || v.AcceptedAt == nil {
		t.Fatalf("expected accepted membership, got %+v", v)
	}

	// Accepting twice fails.
	if _, err := eng.AcceptInvite(ctx, b.ID, "u1"); !errors.Is(err, ErrNoPendingInvite) {
		t.Fatalf("expected ErrNoPendingInvite, got %v", err)
	}
	// Accepting without an invite fails.
	if _, err := eng.AcceptInvite(ctx, b.ID, "u2"); !errors.Is(err, ErrNoPendingInvite) {
		t.Fatalf("expected ErrNoPendingInvite for stranger, got %v", err)
	}

	// The owner hears about the confirmation.
	entries, err := eng.ListNotifications(ctx, "owner", notification.ListFilter{Kind: notification.KindMemberConfirmation})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one confirmation notification, got %d", len(entries))
	}
}

func TestRejectInvite(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)

	if _, err := eng.InviteMember(ctx, b.ID, "u1", "Uma", "owner"); err != nil {
		t.Fatal(err)
	}
	if err := eng.RejectInvite(ctx, b.ID, "u1"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetMember(ctx, b.ID, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected membership gone, got %v", err)
	}
	// Last member gone, no roles: the ledger is dropped.
	if _, err := s.GetLedger(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ledger dropped, got %v", err)
	}

	entries, err := eng.ListNotifications(ctx, "owner", notification.ListFilter{Kind: notification.KindMemberRejection})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one rejection notification, got %d", len(entries))
	}
}

func TestRemoveMemberPrunesGrants(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")
	addMember(t, eng, b, "u2")

	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u1", "owner"); err != nil {
		t.Fatal(err)
	}

	if err := eng.RemoveMember(ctx, b.ID, "u1", "owner"); err != nil {
		t.Fatal(err)
	}

	l, err := s.GetLedger(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if l.References(capability.TargetMember, "u1") {
		t.Fatal("removed member still referenced by the ledger")
	}
	if _, err := eng.Resolve(ctx, b.ID, "u1"); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember after removal, got %v", err)
	}
}

func TestRemoveMemberAuthorization(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")
	addMember(t, eng, b, "u2")

	// A plain member cannot remove someone else.
	if err := eng.RemoveMember(ctx, b.ID, "u2", "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// But anyone can leave.
	if err := eng.RemoveMember(ctx, b.ID, "u1", "u1"); err != nil {
		t.Fatalf("self-leave failed: %v", err)
	}
	// Removing a non-member fails loudly.
	if err := eng.RemoveMember(ctx, b.ID, "ghost", "owner"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestAssignAndUnassignRole(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}

	v, err := eng.AssignRole(ctx, b.ID, "u1", r.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if v.RoleID == nil || *v.RoleID != r.ID {
		t.Fatalf("expected role assigned, got %+v", v.RoleID)
	}

	// Roles from another bed are rejected.
	other := newTestBed(t, eng, false)
	foreign, err := eng.CreateRole(ctx, other.ID, "Waterer", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AssignRole(ctx, b.ID, "u1", foreign.ID, "owner"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound for cross-bed role, got %v", err)
	}

	v, err = eng.UnassignRole(ctx, b.ID, "u1", "owner")
	if err != nil {
		t.Fatal(err)
	}
	if v.RoleID != nil {
		t.Fatal("expected role cleared")
	}
}

func TestListMembersVisibility(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")
	if _, err := eng.InviteMember(ctx, b.ID, "u2", "Uri", "owner"); err != nil {
		t.Fatal(err)
	}

	// Owner sees every row, pending included.
	views, err := eng.ListMembers(ctx, b.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("owner should see 2 rows, got %d", len(views))
	}

	// u1 sees accepted rows only: u2's pending invite stays private.
	views, err = eng.ListMembers(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].UserID != "u1" {
		t.Fatalf("member should see only accepted rows, got %+v", views)
	}

	// u2 sees accepted rows plus their own pending row.
	views, err = eng.ListMembers(ctx, b.ID, "u2")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("invitee should see accepted rows and own invite, got %d", len(views))
	}

	// Strangers get nothing.
	if _, err := eng.ListMembers(ctx, b.ID, "ghost"); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestListMemberships(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b1 := newTestBed(t, eng, false)
	b2 := newTestBed(t, eng, false)
	addMember(t, eng, b1, "u1")
	if _, err := eng.InviteMember(ctx, b2.ID, "u1", "Uma", "owner"); err != nil {
		t.Fatal(err)
	}

	rows, err := eng.ListMemberships(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(rows))
	}
}
