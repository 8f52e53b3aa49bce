package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/trellis/id"
	"github.com/xraph/trellis/notification"
)

func (a *API) registerNotificationRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("notifications"))

	if err := g.GET("/notifications", a.listNotifications,
		forge.WithSummary("List notifications"),
		forge.WithDescription("Lists the caller's notifications, newest first."),
		forge.WithOperationID("listNotifications"),
		forge.WithRequestSchema(ListNotificationsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Notification list", []*notification.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/notifications/:notificationId/read", a.markNotificationRead,
		forge.WithSummary("Mark notification read"),
		forge.WithDescription("Flags one of the caller's notifications as read."),
		forge.WithOperationID("markNotificationRead"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/notifications/:notificationId", a.deleteNotification,
		forge.WithSummary("Delete notification"),
		forge.WithDescription("Removes one of the caller's notifications."),
		forge.WithOperationID("deleteNotification"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) listNotifications(ctx forge.Context, req *ListNotificationsRequest) ([]*notification.Entry, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := a.eng.ListNotifications(ctx.Context(), caller, notification.ListFilter{
		Kind:   notification.Kind(req.Kind),
		Unread: req.Unread,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return entries, ctx.JSON(http.StatusOK, entries)
}

func (a *API) markNotificationRead(ctx forge.Context, _ *NotificationPathRequest) (*struct{}, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	notifID, err := parseNotificationID(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.MarkNotificationRead(ctx.Context(), notifID, caller); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) deleteNotification(ctx forge.Context, _ *NotificationPathRequest) (*struct{}, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	notifID, err := parseNotificationID(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.DeleteNotification(ctx.Context(), notifID, caller); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

// parseNotificationID reads the notificationId path parameter.
func parseNotificationID(ctx forge.Context) (id.NotificationID, error) {
	notifID, err := id.ParseNotificationID(ctx.Param("notificationId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid notification ID: %v", err))
	}
	return notifID, nil
}
