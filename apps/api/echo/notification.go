package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/user"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *notification.Service) {
	api := notificationApi{svc: svc}

	ng := g.Group("/notifications", jwt, requireAction(core.ActNotifications))
	ng.GET("/my", withUser(api.listMine))
	ng.PATCH("/read-all", withUser(api.markAllRead))
	ng.PATCH("/:id/read", withUser(api.markRead))
	ng.DELETE("/:id", withUser(api.destroy))
	ng.POST("/admin", api.create, requireAction(core.ActAdmin))
}

func (api *notificationApi) listMine(ctx echo.Context, usr user.User) error {
	notes, err := api.svc.ListMine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	unread := 0
	for _, n := range notes {
		if !n.IsRead {
			unread++
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"notifications": nonNil(notes), "unread": unread})
}

func (api *notificationApi) markRead(ctx echo.Context, usr user.User) error {
	n, err := api.svc.MarkRead(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"notification": n})
}

func (api *notificationApi) markAllRead(ctx echo.Context, usr user.User) error {
	count, err := api.svc.MarkAllRead(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "All notifications marked as read", "updated": count})
}

func (api *notificationApi) destroy(ctx echo.Context, usr user.User) error {
	if err := api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotice
	if err := bind(ctx, &data); err != nil {
		return err
	}
	n, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Notification sent", "notification": n})
}
