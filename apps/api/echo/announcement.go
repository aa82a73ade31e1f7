package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/announcement"
	"github.com/etarip26/EduConnect/core/user"
)

type announcementApi struct {
	svc *announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *announcement.Service) {
	api := announcementApi{svc: svc}

	ag := g.Group("/announcements")
	ag.GET("/active", api.listActive)

	admin := ag.Group("", jwt, requireAction(core.ActAdmin))
	admin.GET("", api.listAll)
	admin.POST("", withUser(api.create))
	admin.PUT("/:id", withUser(api.update))
	admin.DELETE("/:id", withUser(api.destroy))
}

func (api *announcementApi) listActive(ctx echo.Context) error {
	list, err := api.svc.ListActive(ctx.Request().Context(), time.Now())
	if err != nil {
		return errors.Wrap(err, "listing active announcements")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"announcements": nonNil(list)})
}

func (api *announcementApi) listAll(ctx echo.Context) error {
	list, err := api.svc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing announcements")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"announcements": nonNil(list)})
}

func (api *announcementApi) create(ctx echo.Context, usr user.User) error {
	var data announcement.Input
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Announcement created", "announcement": a})
}

func (api *announcementApi) update(ctx echo.Context, usr user.User) error {
	var data announcement.Input
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.Update(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Announcement updated", "announcement": a})
}

func (api *announcementApi) destroy(ctx echo.Context, usr user.User) error {
	if err := api.svc.Delete(ctx.Request().Context(), usr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Announcement deleted"})
}
