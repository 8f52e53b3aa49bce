package trellis

import (
	"context"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
)

// Cache stores resolved capability sets keyed by bed and user. Only
// successful resolutions are cached; not-a-member and not-found outcomes
// always hit the store.
type Cache interface {
	// Get returns a cached capability set, if available.
	Get(ctx context.Context, bedID id.BedID, userID string) (capability.Set, bool)

	// Set stores a resolved capability set.
	Set(ctx context.Context, bedID id.BedID, userID string, set capability.Set)

	// InvalidateBed removes all cached resolutions for a bed.
	InvalidateBed(ctx context.Context, bedID id.BedID)

	// InvalidateMember removes the cached resolution for one user on a bed.
	InvalidateMember(ctx context.Context, bedID id.BedID, userID string)
}
