package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/trellis"
	"github.com/xraph/trellis/id"
)

func (a *API) registerMemberRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("members"))

	if err := g.GET("/beds/:bedId/members", a.listMembers,
		forge.WithSummary("List members"),
		forge.WithDescription("Lists memberships on a bed visible to the caller."),
		forge.WithOperationID("listMembers"),
		forge.WithResponseSchema(http.StatusOK, "Member list", []*trellis.MemberView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/beds/:bedId/members", a.inviteMember,
		forge.WithSummary("Invite member"),
		forge.WithDescription("Creates a pending membership for a user."),
		forge.WithOperationID("inviteMember"),
		forge.WithRequestSchema(InviteMemberRequest{}),
		forge.WithCreatedResponse(&trellis.MemberView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/beds/:bedId/members/accept", a.acceptInvite,
		forge.WithSummary("Accept invite"),
		forge.WithDescription("Confirms the caller's pending membership."),
		forge.WithOperationID("acceptInvite"),
		forge.WithResponseSchema(http.StatusOK, "Accepted membership", &trellis.MemberView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/beds/:bedId/members/reject", a.rejectInvite,
		forge.WithSummary("Reject invite"),
		forge.WithDescription("Declines the caller's pending membership."),
		forge.WithOperationID("rejectInvite"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/beds/:bedId/members/:userId", a.removeMember,
		forge.WithSummary("Remove member"),
		forge.WithDescription("Removes a membership. Members may remove themselves."),
		forge.WithOperationID("removeMember"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/beds/:bedId/members/:userId/role", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Sets a member's role."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated membership", &trellis.MemberView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/beds/:bedId/members/:userId/role", a.unassignRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Clears a member's role."),
		forge.WithOperationID("unassignRole"),
		forge.WithResponseSchema(http.StatusOK, "Updated membership", &trellis.MemberView{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listMembers(ctx forge.Context, _ *GetBedRequest) ([]*trellis.MemberView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	members, err := a.eng.ListMembers(ctx.Context(), bedID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return members, ctx.JSON(http.StatusOK, members)
}

func (a *API) inviteMember(ctx forge.Context, req *InviteMemberRequest) (*trellis.MemberView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, forge.BadRequest("user_id is required")
	}

	m, err := a.eng.InviteMember(ctx.Context(), bedID, req.UserID, req.Username, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) acceptInvite(ctx forge.Context, _ *GetBedRequest) (*trellis.MemberView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := a.eng.AcceptInvite(ctx.Context(), bedID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) rejectInvite(ctx forge.Context, _ *GetBedRequest) (*struct{}, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.RejectInvite(ctx.Context(), bedID, caller); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) removeMember(ctx forge.Context, _ *MemberPathRequest) (*struct{}, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	userID := ctx.Param("userId")
	if userID == "" {
		return nil, forge.BadRequest("user ID is required")
	}

	if err := a.eng.RemoveMember(ctx.Context(), bedID, userID, caller); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*trellis.MemberView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	m, err := a.eng.AssignRole(ctx.Context(), bedID, ctx.Param("userId"), roleID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) unassignRole(ctx forge.Context, _ *MemberPathRequest) (*trellis.MemberView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	m, err := a.eng.UnassignRole(ctx.Context(), bedID, ctx.Param("userId"), caller)
	if err != nil {
		return nil, mapError(err)
	}
	return m, ctx.JSON(http.StatusOK, m)
}
