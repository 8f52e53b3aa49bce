package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/ledger"
	"github.com/xraph/trellis/member"
	"github.com/xraph/trellis/role"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeResolveEntry struct {
	name string
	hook BeforeResolve
}
type afterResolveEntry struct {
	name string
	hook AfterResolve
}
type memberInvitedEntry struct {
	name string
	hook MemberInvited
}
type memberAcceptedEntry struct {
	name string
	hook MemberAccepted
}
type memberRemovedEntry struct {
	name string
	hook MemberRemoved
}
type roleCreatedEntry struct {
	name string
	hook RoleCreated
}
type roleUpdatedEntry struct {
	name string
	hook RoleUpdated
}
type roleDeletedEntry struct {
	name string
	hook RoleDeleted
}
type permissionToggledEntry struct {
	name string
	hook PermissionToggled
}
type ledgerCreatedEntry struct {
	name string
	hook LedgerCreated
}
type ledgerDeletedEntry struct {
	name string
	hook LedgerDeleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeResolve     []beforeResolveEntry
	afterResolve      []afterResolveEntry
	memberInvited     []memberInvitedEntry
	memberAccepted    []memberAcceptedEntry
	memberRemoved     []memberRemovedEntry
	roleCreated       []roleCreatedEntry
	roleUpdated       []roleUpdatedEntry
	roleDeleted       []roleDeletedEntry
	permissionToggled []permissionToggledEntry
	ledgerCreated     []ledgerCreatedEntry
	ledgerDeleted     []ledgerDeletedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeResolve); ok {
		r.beforeResolve = append(r.beforeResolve, beforeResolveEntry{name, h})
	}
	if h, ok := p.(AfterResolve); ok {
		r.afterResolve = append(r.afterResolve, afterResolveEntry{name, h})
	}
	if h, ok := p.(MemberInvited); ok {
		r.memberInvited = append(r.memberInvited, memberInvitedEntry{name, h})
	}
	if h, ok := p.(MemberAccepted); ok {
		r.memberAccepted = append(r.memberAccepted, memberAcceptedEntry{name, h})
	}
	if h, ok := p.(MemberRemoved); ok {
		r.memberRemoved = append(r.memberRemoved, memberRemovedEntry{name, h})
	}
	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, roleCreatedEntry{name, h})
	}
	if h, ok := p.(RoleUpdated); ok {
		r.roleUpdated = append(r.roleUpdated, roleUpdatedEntry{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, roleDeletedEntry{name, h})
	}
	if h, ok := p.(PermissionToggled); ok {
		r.permissionToggled = append(r.permissionToggled, permissionToggledEntry{name, h})
	}
	if h, ok := p.(LedgerCreated); ok {
		r.ledgerCreated = append(r.ledgerCreated, ledgerCreatedEntry{name, h})
	}
	if h, ok := p.(LedgerDeleted); ok {
		r.ledgerDeleted = append(r.ledgerDeleted, ledgerDeletedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Resolution event emitters
// ──────────────────────────────────────────────────

// EmitBeforeResolve notifies all plugins that implement BeforeResolve.
func (r *Registry) EmitBeforeResolve(ctx context.Context, bedID id.BedID, userID string) {
	for _, e := range r.beforeResolve {
		if err := e.hook.OnBeforeResolve(ctx, bedID, userID); err != nil {
			r.logHookError("OnBeforeResolve", e.name, err)
		}
	}
}

// EmitAfterResolve notifies all plugins that implement AfterResolve.
func (r *Registry) EmitAfterResolve(ctx context.Context, bedID id.BedID, userID string, result capability.Set) {
	for _, e := range r.afterResolve {
		if err := e.hook.OnAfterResolve(ctx, bedID, userID, result); err != nil {
			r.logHookError("OnAfterResolve", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Membership event emitters
// ──────────────────────────────────────────────────

// EmitMemberInvited notifies all plugins that implement MemberInvited.
func (r *Registry) EmitMemberInvited(ctx context.Context, m *member.Member) {
	for _, e := range r.memberInvited {
		if err := e.hook.OnMemberInvited(ctx, m); err != nil {
			r.logHookError("OnMemberInvited", e.name, err)
		}
	}
}

// EmitMemberAccepted notifies all plugins that implement MemberAccepted.
func (r *Registry) EmitMemberAccepted(ctx context.Context, m *member.Member) {
	for _, e := range r.memberAccepted {
		if err := e.hook.OnMemberAccepted(ctx, m); err != nil {
			r.logHookError("OnMemberAccepted", e.name, err)
		}
	}
}

// EmitMemberRemoved notifies all plugins that implement MemberRemoved.
func (r *Registry) EmitMemberRemoved(ctx context.Context, bedID id.BedID, userID string) {
	for _, e := range r.memberRemoved {
		if err := e.hook.OnMemberRemoved(ctx, bedID, userID); err != nil {
			r.logHookError("OnMemberRemoved", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Role event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		if err := e.hook.OnRoleCreated(ctx, rl); err != nil {
			r.logHookError("OnRoleCreated", e.name, err)
		}
	}
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleUpdated {
		if err := e.hook.OnRoleUpdated(ctx, rl); err != nil {
			r.logHookError("OnRoleUpdated", e.name, err)
		}
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID) {
	for _, e := range r.roleDeleted {
		if err := e.hook.OnRoleDeleted(ctx, roleID); err != nil {
			r.logHookError("OnRoleDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Permission and ledger event emitters
// ──────────────────────────────────────────────────

// EmitPermissionToggled notifies all plugins that implement PermissionToggled.
func (r *Registry) EmitPermissionToggled(ctx context.Context, ev *ToggleEvent) {
	for _, e := range r.permissionToggled {
		if err := e.hook.OnPermissionToggled(ctx, ev); err != nil {
			r.logHookError("OnPermissionToggled", e.name, err)
		}
	}
}

// EmitLedgerCreated notifies all plugins that implement LedgerCreated.
func (r *Registry) EmitLedgerCreated(ctx context.Context, l *ledger.Ledger) {
	for _, e := range r.ledgerCreated {
		if err := e.hook.OnLedgerCreated(ctx, l); err != nil {
			r.logHookError("OnLedgerCreated", e.name, err)
		}
	}
}

// EmitLedgerDeleted notifies all plugins that implement LedgerDeleted.
func (r *Registry) EmitLedgerDeleted(ctx context.Context, bedID id.BedID) {
	for _, e := range r.ledgerDeleted {
		if err := e.hook.OnLedgerDeleted(ctx, bedID); err != nil {
			r.logHookError("OnLedgerDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
