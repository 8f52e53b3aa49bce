package trellis

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/notification"
)

func TestToggleGrantAndRevoke(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	res, err := eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u1", "owner")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted {
		t.Fatal("first toggle should grant")
	}
	set, err := eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !set.Has(capability.ManageTags) {
		t.Fatal("grant not visible in resolution")
	}

	// Same toggle again revokes: the operation is self-inverse.
	res, err = eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u1", "owner")
	if err != nil {
		t.Fatal(err)
	}
	if res.Granted {
		t.Fatal("second toggle should revoke")
	}
	set, err = eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if set.Has(capability.ManageTags) {
		t.Fatal("revoke not visible in resolution")
	}
}

func TestToggleRoleTarget(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	r, err := eng.CreateRole(ctx, b.ID, "Waterer", []string{"water daily"}, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AssignRole(ctx, b.ID, "u1", r.ID, "owner"); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageEvents, capability.TargetRole, r.ID.String(), "owner"); err != nil {
		t.Fatal(err)
	}

	set, err := eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !set.Has(capability.ManageEvents) {
		t.Fatal("role grant should flow to the role holder")
	}

	// Unassigning the role takes the grant with it.
	if _, err := eng.UnassignRole(ctx, b.ID, "u1", "owner"); err != nil {
		t.Fatal(err)
	}
	set, err = eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if set.Has(capability.ManageEvents) {
		t.Fatal("role grant should not apply without the role")
	}
}

func TestToggleValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	_, err := eng.TogglePermission(ctx, b.ID, "fly", capability.TargetMember, "u1", "owner")
	if !errors.Is(err, ErrInvalidCapability) {
		t.Fatalf("expected ErrInvalidCapability, got %v", err)
	}
	_, err = eng.TogglePermission(ctx, b.ID, capability.ManageTags, "planet", "u1", "owner")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget for bad kind, got %v", err)
	}
	_, err = eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "ghost", "owner")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget for unknown member, got %v", err)
	}
	_, err = eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetRole, id.NewRoleID().String(), "owner")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget for unknown role, got %v", err)
	}
}

func TestTogglePermissionEnforcement(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")
	addMember(t, eng, b, "u2")

	// u1 holds only the baseline, so it cannot toggle member grants.
	_, err := eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u2", "u1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Delegate manage-members to u1 and retry.
	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageMembers, capability.TargetMember, "u1", "owner"); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u2", "u1"); err != nil {
		t.Fatal(err)
	}

	// Role targets need manage-roles, which u1 still lacks.
	r, err := eng.CreateRole(ctx, b.ID, "Weeder", nil, "owner")
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetRole, r.ID.String(), "u1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on role toggle, got %v", err)
	}
}

func TestToggleRestrictFullControl(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.RestrictFullControl = true
	eng, _ := newTestEngine(t, WithConfig(cfg))
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	_, err := eng.TogglePermission(ctx, b.ID, capability.FullControl, capability.TargetMember, "u1", "owner")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for full-control toggle, got %v", err)
	}
}

func TestToggleNotifiesTarget(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u1", "owner"); err != nil {
		t.Fatal(err)
	}

	entries, err := eng.ListNotifications(ctx, "u1", notification.ListFilter{Kind: notification.KindPermissionChange})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 permission-change notification, got %d", len(entries))
	}
	if entries[0].BedID != b.ID || entries[0].SenderID != "owner" {
		t.Fatalf("notification misattributed: %+v", entries[0])
	}
}
