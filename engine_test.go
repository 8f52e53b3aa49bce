package trellis

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/notify"
	"github.com/xraph/trellis/store/memory"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	opts = append([]Option{WithStore(s), WithNotifier(notify.New(s, nil))}, opts...)
	eng, err := NewEngine(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return eng, s
}

// newTestBed creates a bed owned by "owner" and returns it.
func newTestBed(t *testing.T, eng *Engine, public bool) *bed.Bed {
	t.Helper()
	b, err := eng.CreateBed(context.Background(), BedInput{
		Name:   "tomatoes",
		Length: 4,
		Width:  2,
		Public: public,
	}, "owner", "Olive")
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// addMember invites userID and accepts the invite.
func addMember(t *testing.T, eng *Engine, b *bed.Bed, userID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := eng.InviteMember(ctx, b.ID, userID, userID, b.OwnerID); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AcceptInvite(ctx, b.ID, userID); err != nil {
		t.Fatal(err)
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestResolveOwnerHasFullCatalog(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)

	set, err := eng.Resolve(ctx, b.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range capability.Catalog() {
		if !set.Has(c) {
			t.Fatalf("owner missing %s", c)
		}
	}
}

func TestResolveNonMember(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, true)

	_, err := eng.Resolve(ctx, b.ID, "stranger")
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestResolveUnknownBed(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	_, err := eng.Resolve(ctx, id.NewBedID(), "owner")
	if !errors.Is(err, ErrBedNotFound) {
		t.Fatalf("expected ErrBedNotFound, got %v", err)
	}
}

func TestResolveMemberBaseline(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	set, err := eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !set.Has(capability.ManagePosts) || !set.Has(capability.InteractPosts) {
		t.Fatalf("expected baseline grants after accept, got %v", set.Slice())
	}
	if set.Has(capability.ManageMembers) {
		t.Fatal("fresh member should not manage members")
	}
}

func TestResolvePendingMemberHasNoGrants(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	if _, err := eng.InviteMember(ctx, b.ID, "u1", "u1", "owner"); err != nil {
		t.Fatal(err)
	}

	set, err := eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 0 {
		t.Fatalf("pending member should resolve to an empty set, got %v", set.Slice())
	}
}

func TestAllowed(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	ok, err := eng.Allowed(ctx, b.ID, "u1", capability.ManagePosts)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected manage-posts allowed")
	}
	ok, err = eng.Allowed(ctx, b.ID, "u1", capability.ManageRoles)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected manage-roles denied")
	}
}

func TestListLedgerRequiresFullControl(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	if _, err := eng.ListLedger(ctx, b.ID, "u1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member, got %v", err)
	}
	l, err := eng.ListLedger(ctx, b.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if l.BedID != b.ID {
		t.Fatalf("ledger bound to wrong bed: %s", l.BedID)
	}
}

func TestListLedgerEmptyBed(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	b := newTestBed(t, eng, false)

	// No members and no roles: a fresh empty ledger is synthesized.
	l, err := eng.ListLedger(ctx, b.ID, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Grants) != 0 {
		t.Fatalf("expected empty grants, got %v", l.Grants)
	}
}

// mapCache is a minimal Cache for invalidation tests.
type mapCache struct {
	entries map[string]capability.Set
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]capability.Set)}
}

func (c *mapCache) Get(_ context.Context, bedID id.BedID, userID string) (capability.Set, bool) {
	set, ok := c.entries[bedID.String()+":"+userID]
	return set, ok
}

func (c *mapCache) Set(_ context.Context, bedID id.BedID, userID string, set capability.Set) {
	c.entries[bedID.String()+":"+userID] = set
}

func (c *mapCache) InvalidateBed(_ context.Context, bedID id.BedID) {
	prefix := bedID.String() + ":"
	for k := range c.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

func (c *mapCache) InvalidateMember(_ context.Context, bedID id.BedID, userID string) {
	delete(c.entries, bedID.String()+":"+userID)
}

func TestResolveCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, WithCache(newMapCache()))
	b := newTestBed(t, eng, false)
	addMember(t, eng, b, "u1")

	set, err := eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if set.Has(capability.ManageTags) {
		t.Fatal("unexpected manage-tags before toggle")
	}

	// Warm the cache, then mutate. The toggle must invalidate the bed.
	if _, err := eng.TogglePermission(ctx, b.ID, capability.ManageTags, capability.TargetMember, "u1", "owner"); err != nil {
		t.Fatal(err)
	}
	set, err = eng.Resolve(ctx, b.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !set.Has(capability.ManageTags) {
		t.Fatal("cached resolution survived a toggle")
	}
}
