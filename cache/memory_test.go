package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	bedID := id.NewBedID()

	if _, ok := m.Get(ctx, bedID, "user_1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	set := capability.NewSet(capability.ManagePosts, capability.InteractPosts)
	m.Set(ctx, bedID, "user_1", set)

	got, ok := m.Get(ctx, bedID, "user_1")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !got.Has(capability.ManagePosts) || !got.Has(capability.InteractPosts) {
		t.Fatalf("cached set lost capabilities: %v", got.Slice())
	}
	if got.Has(capability.ManageRoles) {
		t.Fatal("cached set gained a capability")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(WithTTL(10 * time.Millisecond))
	ctx := context.Background()
	bedID := id.NewBedID()

	m.Set(ctx, bedID, "user_1", capability.NewSet(capability.ManagePosts))
	time.Sleep(20 * time.Millisecond)

	if _, ok := m.Get(ctx, bedID, "user_1"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestMemoryInvalidateBed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	bedA := id.NewBedID()
	bedB := id.NewBedID()

	m.Set(ctx, bedA, "user_1", capability.NewSet(capability.ManagePosts))
	m.Set(ctx, bedA, "user_2", capability.NewSet(capability.ManagePosts))
	m.Set(ctx, bedB, "user_1", capability.NewSet(capability.ManagePosts))

	m.InvalidateBed(ctx, bedA)

	if _, ok := m.Get(ctx, bedA, "user_1"); ok {
		t.Fatal("expected bedA user_1 invalidated")
	}
	if _, ok := m.Get(ctx, bedA, "user_2"); ok {
		t.Fatal("expected bedA user_2 invalidated")
	}
	if _, ok := m.Get(ctx, bedB, "user_1"); !ok {
		t.Fatal("expected bedB entry untouched")
	}
}

func TestMemoryInvalidateMember(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	bedID := id.NewBedID()

	m.Set(ctx, bedID, "user_1", capability.NewSet(capability.ManagePosts))
	m.Set(ctx, bedID, "user_2", capability.NewSet(capability.ManagePosts))

	m.InvalidateMember(ctx, bedID, "user_1")

	if _, ok := m.Get(ctx, bedID, "user_1"); ok {
		t.Fatal("expected user_1 invalidated")
	}
	if _, ok := m.Get(ctx, bedID, "user_2"); !ok {
		t.Fatal("expected user_2 untouched")
	}
}

func TestMemoryEviction(t *testing.T) {
	m := NewMemory(WithMaxSize(2))
	ctx := context.Background()
	bedID := id.NewBedID()

	m.Set(ctx, bedID, "user_1", capability.NewSet(capability.ManagePosts))
	m.Set(ctx, bedID, "user_2", capability.NewSet(capability.ManagePosts))
	m.Set(ctx, bedID, "user_3", capability.NewSet(capability.ManagePosts))

	m.mu.RLock()
	n := len(m.entries)
	m.mu.RUnlock()
	if n > 2 {
		t.Fatalf("expected at most 2 entries after eviction, got %d", n)
	}
}
