package member

import (
	"context"

	"github.com/xraph/trellis/id"
)

// Store defines persistence operations for bed memberships.
type Store interface {
	// CreateMember persists a new membership.
	CreateMember(ctx context.Context, m *Member) error

	// GetMember retrieves a membership by bed and user.
	GetMember(ctx context.Context, bedID id.BedID, userID string) (*Member, error)

	// UpdateMember persists changes to a membership.
	UpdateMember(ctx context.Context, m *Member) error

	// DeleteMember removes a membership.
	DeleteMember(ctx context.Context, bedID id.BedID, userID string) error

	// ListMembers returns all memberships on a bed.
	ListMembers(ctx context.Context, bedID id.BedID) ([]*Member, error)

	// CountMembers returns the number of memberships on a bed.
	CountMembers(ctx context.Context, bedID id.BedID) (int64, error)

	// ListMembershipsForUser returns every membership held by a user,
	// across all beds.
	ListMembershipsForUser(ctx context.Context, userID string) ([]*Member, error)

	// ClearRoleRefs removes the role reference from every member on the
	// bed that currently holds the given role.
	ClearRoleRefs(ctx context.Context, bedID id.BedID, roleID id.RoleID) error

	// DeleteMembersByBed removes all memberships on a bed.
	DeleteMembersByBed(ctx context.Context, bedID id.BedID) error
}
