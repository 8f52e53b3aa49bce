package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/trellis"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, trellis.ErrDuplicateTitle) || errors.Is(err, trellis.ErrAlreadyMember) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, trellis.ErrOwnerMembership) || errors.Is(err, trellis.ErrNoPendingInvite) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, trellis.ErrInvalidCapability) || errors.Is(err, trellis.ErrUnknownTarget) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, trellis.ErrForbidden) {
		return forge.Forbidden(err.Error())
	}
	return err
}

// isNotFound reports whether err hides an entity. ErrNotAMember maps to
// not-found as well: a non-member must not learn anything about the bed.
func isNotFound(err error) bool {
	return errors.Is(err, trellis.ErrBedNotFound) ||
		errors.Is(err, trellis.ErrMemberNotFound) ||
		errors.Is(err, trellis.ErrRoleNotFound) ||
		errors.Is(err, trellis.ErrNotificationNotFound) ||
		errors.Is(err, trellis.ErrNotAMember)
}

// callerID extracts the authenticated user from the request context.
func callerID(ctx forge.Context) (string, error) {
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return "", forge.Forbidden("authentication required")
	}
	return userID, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
