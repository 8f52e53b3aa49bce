package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/beds/:bedId/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates a new role on a bed."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/beds/:bedId/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists roles on a bed."),
		forge.WithOperationID("listRoles"),
		forge.WithResponseSchema(http.StatusOK, "Role list", []*role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/beds/:bedId/roles/:roleId", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns details of a specific role."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/beds/:bedId/roles/:roleId", a.updateRole,
		forge.WithSummary("Update role"),
		forge.WithDescription("Renames a role and replaces its duties."),
		forge.WithOperationID("updateRole"),
		forge.WithRequestSchema(UpdateRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/beds/:bedId/roles/:roleId", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deletes a role, clearing member references and ledger grants."),
		forge.WithOperationID("deleteRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, forge.BadRequest("title is required")
	}

	r, err := a.eng.CreateRole(ctx.Context(), bedID, req.Title, req.Duties, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) listRoles(ctx forge.Context, _ *GetBedRequest) ([]*role.Role, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := a.eng.ListRoles(ctx.Context(), bedID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return roles, ctx.JSON(http.StatusOK, roles)
}

func (a *API) getRole(ctx forge.Context, _ *RolePathRequest) (*role.Role, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	roleID, err := parseRoleID(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.eng.GetRole(ctx.Context(), bedID, roleID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateRole(ctx forge.Context, req *UpdateRoleRequest) (*role.Role, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	roleID, err := parseRoleID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, forge.BadRequest("title is required")
	}

	r, err := a.eng.UpdateRole(ctx.Context(), bedID, roleID, req.Title, req.Duties, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteRole(ctx forge.Context, _ *RolePathRequest) (*struct{}, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}
	roleID, err := parseRoleID(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.DeleteRole(ctx.Context(), bedID, roleID, caller); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

// parseRoleID reads the roleId path parameter.
func parseRoleID(ctx forge.Context) (id.RoleID, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	return roleID, nil
}
