package trellis

import "errors"

var (
	// ErrBedNotFound is returned when a bed cannot be found.
	ErrBedNotFound = errors.New("trellis: bed not found")

	// ErrNotAMember is returned when a user has no standing on a bed at
	// all. It is a harder boundary than ErrForbidden: the user is not
	// merely missing a capability, they are outside the bed entirely.
	ErrNotAMember = errors.New("trellis: not a member of this bed")

	// ErrForbidden is returned when a member lacks the capability an
	// operation requires.
	ErrForbidden = errors.New("trellis: missing capability")

	// ErrUnknownTarget is returned when a permission toggle names a
	// member or role that does not exist on the bed.
	ErrUnknownTarget = errors.New("trellis: unknown grant target")

	// ErrMemberNotFound is returned when a membership cannot be found.
	ErrMemberNotFound = errors.New("trellis: member not found")

	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = errors.New("trellis: role not found")

	// ErrDuplicateTitle is returned when a role title collides with
	// another role on the same bed (case-insensitively).
	ErrDuplicateTitle = errors.New("trellis: duplicate role title")

	// ErrAlreadyMember is returned when inviting a user who already has
	// a membership on the bed.
	ErrAlreadyMember = errors.New("trellis: user is already a member")

	// ErrOwnerMembership is returned when trying to give the bed owner a
	// membership row. Ownership already outranks every grant.
	ErrOwnerMembership = errors.New("trellis: owner cannot be a member")

	// ErrNoPendingInvite is returned when accepting or rejecting an
	// invite that is not in the pending state.
	ErrNoPendingInvite = errors.New("trellis: no pending invite")

	// ErrInvalidCapability is returned for capability names outside the
	// catalog.
	ErrInvalidCapability = errors.New("trellis: invalid capability")

	// ErrNotificationNotFound is returned when a notification cannot be
	// found.
	ErrNotificationNotFound = errors.New("trellis: notification not found")
)
