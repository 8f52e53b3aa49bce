package api

// ──────────────────────────────────────────────────
// Bed requests
// ──────────────────────────────────────────────────

// CreateBedRequest is the body for creating a bed.
type CreateBedRequest struct {
	Name      string `json:"name" description:"Bed name"`
	OwnerName string `json:"owner_name,omitempty" description:"Display name of the owner"`
	Length    int    `json:"length,omitempty" description:"Bed length in cells"`
	Width     int    `json:"width,omitempty" description:"Bed width in cells"`
	Public    bool   `json:"public,omitempty" description:"Whether the bed is publicly visible"`
}

// UpdateBedRequest is the body for updating a bed.
type UpdateBedRequest struct {
	Name   string `json:"name,omitempty" description:"Bed name"`
	Length int    `json:"length,omitempty" description:"Bed length in cells"`
	Width  int    `json:"width,omitempty" description:"Bed width in cells"`
	Public bool   `json:"public" description:"Whether the bed is publicly visible"`
}

// GetBedRequest is the path parameter for bed routes.
type GetBedRequest struct {
	BedID string `path:"bedId" description:"Bed ID"`
}

// ──────────────────────────────────────────────────
// Member requests
// ──────────────────────────────────────────────────

// InviteMemberRequest is the body for inviting a member.
type InviteMemberRequest struct {
	UserID   string `json:"user_id" description:"ID of the user to invite"`
	Username string `json:"username,omitempty" description:"Display name of the user"`
}

// MemberPathRequest holds the path parameters for member routes.
type MemberPathRequest struct {
	BedID  string `path:"bedId" description:"Bed ID"`
	UserID string `path:"userId" description:"Member user ID"`
}

// AssignRoleRequest is the body for assigning a role to a member.
type AssignRoleRequest struct {
	RoleID string `json:"role_id" description:"Role ID to assign"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Title  string   `json:"title" description:"Role title, unique per bed"`
	Duties []string `json:"duties,omitempty" description:"Duty descriptions"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Title  string   `json:"title" description:"Role title, unique per bed"`
	Duties []string `json:"duties,omitempty" description:"Duty descriptions"`
}

// RolePathRequest holds the path parameters for role routes.
type RolePathRequest struct {
	BedID  string `path:"bedId" description:"Bed ID"`
	RoleID string `path:"roleId" description:"Role ID"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// ToggleRequest is the body for toggling a ledger grant.
type ToggleRequest struct {
	Capability string `json:"capability" description:"Capability name"`
	TargetKind string `json:"target_kind" description:"Grant target kind (member or role)"`
	TargetID   string `json:"target_id" description:"Member user ID or role ID"`
}

// ResolveRequest holds query parameters for resolving capabilities.
type ResolveRequest struct {
	UserID string `query:"user_id" description:"User to resolve (defaults to the caller)"`
}

// ──────────────────────────────────────────────────
// Notification requests
// ──────────────────────────────────────────────────

// ListNotificationsRequest holds query parameters for the inbox.
type ListNotificationsRequest struct {
	Kind   string `query:"kind" description:"Filter by notification kind"`
	Unread *bool  `query:"unread" description:"Filter by read state"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// NotificationPathRequest holds the path parameter for notification routes.
type NotificationPathRequest struct {
	NotificationID string `path:"notificationId" description:"Notification ID"`
}
