// Package middleware provides HTTP authorization middleware for Trellis.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/xraph/trellis"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/id"
)

// Require enforces a capability on the bed addressed by the bedId path
// parameter. It resolves the caller from the request context (Authsome
// user) and denies the request unless the caller holds the capability.
func Require(eng *trellis.Engine, cap capability.Capability) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			bedID, userID, ok := resolveRequest(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			allowed, err := eng.Allowed(ctx.Context(), bedID, userID, cap)
			if err != nil || !allowed {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if the caller holds ANY of the capabilities.
func RequireAny(eng *trellis.Engine, caps ...capability.Capability) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			bedID, userID, ok := resolveRequest(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			set, err := eng.Resolve(ctx.Context(), bedID, userID)
			if err != nil {
				return denyResponse(ctx)
			}
			for _, c := range caps {
				if set.Has(c) {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireMembership allows the request for the bed owner and any member,
// without requiring a capability.
func RequireMembership(eng *trellis.Engine) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			bedID, userID, ok := resolveRequest(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			if _, err := eng.Resolve(ctx.Context(), bedID, userID); err != nil {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// resolveRequest extracts the bed ID and caller from the request.
// Priority for the caller: Forge user ID (from Authsome) → denied.
func resolveRequest(ctx forge.Context) (id.BedID, string, bool) {
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return id.Nil, "", false
	}
	bedID, err := id.ParseBedID(ctx.Param("bedId"))
	if err != nil {
		return id.Nil, "", false
	}
	return bedID, userID, true
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
