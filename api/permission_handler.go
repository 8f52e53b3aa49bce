package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/trellis"
	"github.com/xraph/trellis/capability"
	"github.com/xraph/trellis/ledger"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.GET("/beds/:bedId/permissions", a.resolvePermissions,
		forge.WithSummary("Resolve capabilities"),
		forge.WithDescription("Returns the effective capabilities of a user on a bed."),
		forge.WithOperationID("resolvePermissions"),
		forge.WithRequestSchema(ResolveRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Effective capabilities", &ResolveResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/beds/:bedId/ledger", a.getLedger,
		forge.WithSummary("Get ledger"),
		forge.WithDescription("Returns the bed's permission ledger. Requires full control."),
		forge.WithOperationID("getLedger"),
		forge.WithResponseSchema(http.StatusOK, "Permission ledger", &ledger.Ledger{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/beds/:bedId/permissions/toggle", a.togglePermission,
		forge.WithSummary("Toggle permission"),
		forge.WithDescription("Flips a single grant in the bed's ledger."),
		forge.WithOperationID("togglePermission"),
		forge.WithRequestSchema(ToggleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Toggle outcome", &trellis.ToggleResult{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) resolvePermissions(ctx forge.Context, req *ResolveRequest) (*ResolveResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	// Resolving someone else requires manage-members on the caller.
	target := req.UserID
	if target == "" {
		target = caller
	}
	if target != caller {
		set, err := a.eng.Resolve(ctx.Context(), bedID, caller)
		if err != nil {
			return nil, mapError(err)
		}
		if !set.Has(capability.ManageMembers) {
			return nil, forge.Forbidden("manage-members required to resolve other users")
		}
	}

	set, err := a.eng.Resolve(ctx.Context(), bedID, target)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &ResolveResponse{UserID: target, Capabilities: set.Slice()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getLedger(ctx forge.Context, _ *GetBedRequest) (*ledger.Ledger, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	l, err := a.eng.ListLedger(ctx.Context(), bedID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return l, ctx.JSON(http.StatusOK, l)
}

func (a *API) togglePermission(ctx forge.Context, req *ToggleRequest) (*trellis.ToggleResult, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	if req.TargetID == "" {
		return nil, forge.BadRequest("target_id is required")
	}

	result, err := a.eng.TogglePermission(ctx.Context(), bedID,
		capability.Capability(req.Capability),
		capability.TargetKind(req.TargetKind),
		req.TargetID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return result, ctx.JSON(http.StatusOK, result)
}
