package role

import (
	"context"

	"github.com/xraph/trellis/id"
)

// Store defines persistence operations for roles.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleByTitle retrieves a role on a bed by case-insensitive title.
	GetRoleByTitle(ctx context.Context, bedID id.BedID, title string) (*Role, error)

	// UpdateRole persists changes to a role.
	UpdateRole(ctx context.Context, r *Role) error

	// DeleteRole removes a role by ID.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns all roles on a bed.
	ListRoles(ctx context.Context, bedID id.BedID) ([]*Role, error)

	// CountRoles returns the number of roles on a bed.
	CountRoles(ctx context.Context, bedID id.BedID) (int64, error)

	// DeleteRolesByBed removes all roles on a bed.
	DeleteRolesByBed(ctx context.Context, bedID id.BedID) error
}
