package ledger

import (
	"testing"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
)

func newTestLedger() *Ledger {
	return New(id.NewBedID(), "owner-1", "fern")
}

func TestNewSeedsFullCatalog(t *testing.T) {
	l := newTestLedger()
	if len(l.Grants) != 7 {
		t.Fatalf("new ledger has %d grant entries, want 7", len(l.Grants))
	}
	for _, c := range capability.Catalog() {
		targets, ok := l.Grants[c]
		if !ok {
			t.Errorf("missing grant entry for %q", c)
		}
		if len(targets.Members) != 0 || len(targets.Roles) != 0 {
			t.Errorf("new ledger has non-empty targets for %q", c)
		}
	}
}

func TestToggleIsSelfInverse(t *testing.T) {
	l := newTestLedger()

	granted := l.Toggle(capability.ManagePosts, capability.TargetMember, "user-1")
	if !granted {
		t.Fatal("first toggle did not grant")
	}
	if !l.Has(capability.ManagePosts, capability.TargetMember, "user-1") {
		t.Fatal("grant not recorded")
	}

	granted = l.Toggle(capability.ManagePosts, capability.TargetMember, "user-1")
	if granted {
		t.Fatal("second toggle did not revoke")
	}
	if l.Has(capability.ManagePosts, capability.TargetMember, "user-1") {
		t.Fatal("grant still present after revoke")
	}
}

func TestGrantIsIdempotent(t *testing.T) {
	l := newTestLedger()
	l.Grant(capability.ManageTags, capability.TargetMember, "user-1")
	l.Grant(capability.ManageTags, capability.TargetMember, "user-1")
	if n := len(l.Grants[capability.ManageTags].Members); n != 1 {
		t.Errorf("double grant produced %d entries, want 1", n)
	}
}

func TestPruneMemberClearsAllCapabilities(t *testing.T) {
	l := newTestLedger()
	for _, c := range capability.Catalog() {
		l.Grant(c, capability.TargetMember, "user-1")
		l.Grant(c, capability.TargetMember, "user-2")
	}

	l.PruneMember("user-1")

	if l.References(capability.TargetMember, "user-1") {
		t.Error("pruned member still referenced")
	}
	if !l.References(capability.TargetMember, "user-2") {
		t.Error("prune removed an unrelated member")
	}
}

func TestPruneRoleClearsAllCapabilities(t *testing.T) {
	l := newTestLedger()
	roleID := id.NewRoleID()
	other := id.NewRoleID()
	l.Grant(capability.ManageEvents, capability.TargetRole, roleID.String())
	l.Grant(capability.ManageRoles, capability.TargetRole, roleID.String())
	l.Grant(capability.ManageEvents, capability.TargetRole, other.String())

	l.PruneRole(roleID)

	if l.References(capability.TargetRole, roleID.String()) {
		t.Error("pruned role still referenced")
	}
	if !l.Has(capability.ManageEvents, capability.TargetRole, other.String()) {
		t.Error("prune removed an unrelated role grant")
	}
}

func TestCapabilitiesForUnionsDirectAndRole(t *testing.T) {
	l := newTestLedger()
	roleID := id.NewRoleID()
	l.Grant(capability.ManagePosts, capability.TargetMember, "user-1")
	l.Grant(capability.ManageEvents, capability.TargetRole, roleID.String())
	l.Grant(capability.ManageTags, capability.TargetMember, "user-2")

	set := l.CapabilitiesFor("user-1", roleID)
	if !set.Has(capability.ManagePosts) {
		t.Error("direct grant missing from union")
	}
	if !set.Has(capability.ManageEvents) {
		t.Error("role grant missing from union")
	}
	if set.Has(capability.ManageTags) {
		t.Error("union includes another member's grant")
	}
}

func TestCapabilitiesForWithoutRole(t *testing.T) {
	l := newTestLedger()
	roleID := id.NewRoleID()
	l.Grant(capability.ManageEvents, capability.TargetRole, roleID.String())

	set := l.CapabilitiesFor("user-1", id.Nil)
	if len(set.Slice()) != 0 {
		t.Errorf("member without role resolved to %v, want empty", set.Slice())
	}
}

func TestCloneIsDeep(t *testing.T) {
	l := newTestLedger()
	l.Grant(capability.ManagePosts, capability.TargetMember, "user-1")

	c := l.Clone()
	c.Grant(capability.ManagePosts, capability.TargetMember, "user-2")

	if l.Has(capability.ManagePosts, capability.TargetMember, "user-2") {
		t.Error("mutating clone changed the original")
	}
}
