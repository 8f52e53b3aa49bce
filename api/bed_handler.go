package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/trellis"
	"github.com/xraph/trellis/bed"
	"github.com/xraph/trellis/id"
)

func (a *API) registerBedRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("beds"))

	if err := g.POST("/beds", a.createBed,
		forge.WithSummary("Create bed"),
		forge.WithDescription("Creates a new garden bed owned by the caller."),
		forge.WithOperationID("createBed"),
		forge.WithRequestSchema(CreateBedRequest{}),
		forge.WithCreatedResponse(&bed.Bed{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/beds", a.listBeds,
		forge.WithSummary("List beds"),
		forge.WithDescription("Lists beds the caller owns or is a member of."),
		forge.WithOperationID("listBeds"),
		forge.WithResponseSchema(http.StatusOK, "Bed list", []*trellis.BedView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/beds/:bedId", a.getBed,
		forge.WithSummary("Get bed"),
		forge.WithDescription("Returns a bed visible to the caller."),
		forge.WithOperationID("getBed"),
		forge.WithResponseSchema(http.StatusOK, "Bed details", &trellis.BedView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/beds/:bedId", a.updateBed,
		forge.WithSummary("Update bed"),
		forge.WithDescription("Updates a bed. Owner only."),
		forge.WithOperationID("updateBed"),
		forge.WithRequestSchema(UpdateBedRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated bed", &bed.Bed{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/beds/:bedId", a.deleteBed,
		forge.WithSummary("Delete bed"),
		forge.WithDescription("Deletes a bed with all memberships, roles and the ledger. Owner only."),
		forge.WithOperationID("deleteBed"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/beds/:bedId/heart", a.toggleFavorite,
		forge.WithSummary("Toggle favorite"),
		forge.WithDescription("Flips the caller's heart on the bed."),
		forge.WithOperationID("toggleFavorite"),
		forge.WithResponseSchema(http.StatusOK, "Heart state", &FavoriteResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createBed(ctx forge.Context, req *CreateBedRequest) (*bed.Bed, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	b, err := a.eng.CreateBed(ctx.Context(), trellis.BedInput{
		Name:   req.Name,
		Length: req.Length,
		Width:  req.Width,
		Public: req.Public,
	}, caller, req.OwnerName)
	if err != nil {
		return nil, mapError(err)
	}
	return b, ctx.JSON(http.StatusCreated, b)
}

func (a *API) listBeds(ctx forge.Context, _ *struct{}) ([]*trellis.BedView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	views, err := a.eng.ListBedsFor(ctx.Context(), caller)
	if err != nil {
		return nil, mapError(err)
	}
	return views, ctx.JSON(http.StatusOK, views)
}

func (a *API) getBed(ctx forge.Context, _ *GetBedRequest) (*trellis.BedView, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := a.eng.GetBed(ctx.Context(), bedID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return view, ctx.JSON(http.StatusOK, view)
}

func (a *API) updateBed(ctx forge.Context, req *UpdateBedRequest) (*bed.Bed, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	b, err := a.eng.UpdateBed(ctx.Context(), bedID, trellis.BedInput{
		Name:   req.Name,
		Length: req.Length,
		Width:  req.Width,
		Public: req.Public,
	}, caller)
	if err != nil {
		return nil, mapError(err)
	}
	return b, ctx.JSON(http.StatusOK, b)
}

func (a *API) deleteBed(ctx forge.Context, _ *GetBedRequest) (*struct{}, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.DeleteBed(ctx.Context(), bedID, caller); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) toggleFavorite(ctx forge.Context, _ *GetBedRequest) (*FavoriteResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	bedID, err := parseBedID(ctx)
	if err != nil {
		return nil, err
	}

	hearted, err := a.eng.ToggleFavorite(ctx.Context(), bedID, caller)
	if err != nil {
		return nil, mapError(err)
	}
	resp := &FavoriteResponse{Hearted: hearted}
	return resp, ctx.JSON(http.StatusOK, resp)
}

// parseBedID reads the bedId path parameter.
func parseBedID(ctx forge.Context) (id.BedID, error) {
	bedID, err := id.ParseBedID(ctx.Param("bedId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid bed ID: %v", err))
	}
	return bedID, nil
}
