package capability

import "testing"

func TestCatalogIsComplete(t *testing.T) {
	got := Catalog()
	if len(got) != 7 {
		t.Fatalf("Catalog() has %d entries, want 7", len(got))
	}
	if got[0] != FullControl {
		t.Errorf("Catalog()[0] = %q, want %q", got[0], FullControl)
	}
	for _, c := range got {
		if !c.IsValid() {
			t.Errorf("catalog capability %q reported invalid", c)
		}
	}
}

func TestIsValidRejectsUnknown(t *testing.T) {
	tests := []Capability{"", "manage-weeds", "fullcontrol", "Manage-Posts"}
	for _, c := range tests {
		if c.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", c)
		}
	}
}

func TestFullControlImpliesAll(t *testing.T) {
	s := NewSet(FullControl)
	for _, c := range Catalog() {
		if !s.Has(c) {
			t.Errorf("set with full-control does not grant %q", c)
		}
	}
	if got := s.Slice(); len(got) != 7 {
		t.Errorf("Slice() with full-control has %d entries, want full catalog", len(got))
	}
}

func TestHasWithoutImplication(t *testing.T) {
	s := NewSet(ManagePosts, InteractPosts)
	if !s.Has(ManagePosts) {
		t.Error("set does not grant manage-posts")
	}
	if s.Has(ManageRoles) {
		t.Error("set grants manage-roles without a grant")
	}
}

func TestUnion(t *testing.T) {
	a := NewSet(ManagePosts)
	b := NewSet(ManageTags)
	merged := a.Union(b)
	if !merged.Has(ManagePosts) || !merged.Has(ManageTags) {
		t.Errorf("union missing members: %v", merged.Slice())
	}
}

func TestSliceOrderIsCanonical(t *testing.T) {
	s := NewSet(InteractPosts, ManageMembers, ManageEvents)
	got := s.Slice()
	want := []Capability{ManageMembers, ManageEvents, InteractPosts}
	if len(got) != len(want) {
		t.Fatalf("Slice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Slice()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTargetKindValidity(t *testing.T) {
	if !TargetMember.IsValid() || !TargetRole.IsValid() {
		t.Error("known target kinds reported invalid")
	}
	if TargetKind("group").IsValid() {
		t.Error("unknown target kind reported valid")
	}
}
