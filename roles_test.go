package trellis

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/notification"
	"github.com/xraph/trellis/store"
)

func TestCreateRole(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", []string{"water daily", "check soil"}, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Waterer" || len(r.Duties) != 2 {
		t.Fatalf("unexpected role: %+v", r)
	}
	for _, d := range r.Duties {
		if d.ID.IsNil() {
			t.Fatal("duty created without an ID")
		}
	}

	// The ledger appears with the first role too.
	if _, err := s.GetLedger(ctx, b.ID); err != nil {
		t.Fatalf("expected ledger after first role: %v", err)
	}
}

func TestCreateRoleDuplicateTitle(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)

	if _, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "owner"); err != nil {
		t.Fatal(err)
	}
	// Titles collide case-insensitively.
	if _, err := eng.CreateRole(ctx, b.ID, "waterer", nil, "owner"); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	// The same title on another bed is fine.
	other := newTestBed(t, eng, false)
	if _, err := eng.CreateRole(ctx, other.ID, "Waterer", nil, "owner"); err != nil {
		t.Fatalf("title should be scoped per bed: %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", []string{"water"}, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CreateRole(ctx, b.ID, "Weeder", nil, "owner"); err != nil {
		t.Fatal(err)
	}

	// Renaming to an existing title on the bed collides.
	if _, err := eng.UpdateRole(ctx, b.ID, r.ID, "WEEDER", nil, "owner"); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	// Renaming to its own title (any casing) is allowed.
	updated, err := eng.UpdateRole(ctx, b.ID, r.ID, "WATERER", []string{"water", "mist"}, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "WATERER" || len(updated.Duties) != 2 {
		t.Fatalf("unexpected updated role: %+v", updated)
	}
}

func TestDeleteRoleClearsReferences(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AssignRole(ctx, b.ID, "u1", r.ID, "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageEvents, capability.TargetRole, r.ID.String(), "owner"); err != nil {
		t.Fatal(err)
	}

	if err := eng.DeleteRole(ctx, b.ID, r.ID, "owner"); err != nil {
		t.Fatal(err)
	}

	// The member reference is cleared.
	m, err := s.GetMember(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if m.RoleID != nil {
		t.Fatal("member still references the deleted role")
	}
	// The ledger no longer mentions the role.
	l, err := s.GetLedger(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if l.References(capability.TargetRole, r.ID.String()) {
		t.Fatal("deleted role still referenced by the ledger")
	}
	// The holder hears about it.
	entries, err := eng.ListNotifications(ctx, "u1", notification.ListFilter{Kind: notification.KindRoleRemoved})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one role-removed notification, got %d", len(entries))
	}
	// Resolution still works and no longer carries role grants.
	set, err := eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if set.Has(capability.ManageEvents) {
		t.Fatal("deleted role's grants survived")
	}
}

func TestDeleteLastRoleDropsLedger(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)
	b := newTestBed(t, eng, false)

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.DeleteRole(ctx, b.ID, r.ID, "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetLedger(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ledger dropped with last role, got %v", err)
	}
}

func TestRoleReadsRequireMembership(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, true)
	addMember(t, eng, b, "u1")

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := eng.GetRole(ctx, b.ID, r.ID, "u1"); err != nil {
		t.Fatalf("member read failed: %v", err)
	}
	if _, err := eng.ListRoles(ctx, b.ID, "ghost"); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}

	roles, err := eng.ListRoles(ctx, b.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 1 {
		t.Fatalf("expected 1 role, got %d", len(roles))
	}
}

func TestRoleWritesRequireManageRoles(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	if _, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Delegate manage-roles and retry.
	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageRoles, capability.TargetMember, "u1", "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.CreateRole(ctx, b.ID, "Waterer", nil, "u1"); err != nil {
		t.Fatalf("delegated create failed: %v", err)
	}
}
