// Package plugin defines the plugin system for Trellis.
// Plugins are notified of lifecycle events (membership changes, role
// changes, permission toggles, ledger lifecycle) and can react — logging,
// metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ToggleEvent describes a single permission toggle.
type ToggleEvent struct {
	BedID      id.BedID              `json:"bed_id"`
	Capability capability.Capability `json:"capability"`
	Kind       capability.TargetKind `json:"kind"`
	TargetID   string                `json:"target_id"`
	Granted    bool                  `json:"granted"`
	ActorID    string                `json:"actor_id"`
}

// ──────────────────────────────────────────────────
// Resolution hooks
// ──────────────────────────────────────────────────

// BeforeResolve is called before a permission resolution.
type BeforeResolve interface {
	OnBeforeResolve(ctx context.Context, bedID id.BedID, userID string) error
}

// AfterResolve is called after a permission resolution completes.
type AfterResolve interface {
	OnAfterResolve(ctx context.Context, bedID id.BedID, userID string, result capability.Set) error
}

// ──────────────────────────────────────────────────
// Membership lifecycle hooks
// ──────────────────────────────────────────────────

// MemberInvited is called after a member is invited.
type MemberInvited interface {
	OnMemberInvited(ctx context.Context, m *member.Member) error
}

// MemberAccepted is called after a member accepts an invite.
type MemberAccepted interface {
	OnMemberAccepted(ctx context.Context, m *member.Member) error
}

// MemberRemoved is called after a membership is removed, whether by
// rejection, leaving, or removal.
type MemberRemoved interface {
	OnMemberRemoved(ctx context.Context, bedID id.BedID, userID string) error
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role is updated.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deleted.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID) error
}

// ──────────────────────────────────────────────────
// Permission and ledger hooks
// ──────────────────────────────────────────────────

// PermissionToggled is called after a permission toggle commits.
type PermissionToggled interface {
	OnPermissionToggled(ctx context.Context, ev *ToggleEvent) error
}

// LedgerCreated is called when a bed gains its permission ledger.
type LedgerCreated interface {
	OnLedgerCreated(ctx context.Context, l *ledger.Ledger) error
}

// LedgerDeleted is called when a bed's last member and role are gone and
// the ledger is dropped.
type LedgerDeleted interface {
	OnLedgerDeleted(ctx context.Context, bedID id.BedID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
