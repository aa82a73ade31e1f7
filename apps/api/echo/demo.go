package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/demo"
	"github.com/etarip26/EduConnect/core/user"
)

type demoApi struct {
	svc *demo.Service
}

func registerDemoAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *demo.Service) {
	api := demoApi{svc: svc}

	dg := g.Group("/demo-sessions", jwt)
	dg.POST("/request", withUser(api.request), requireAction(core.ActRequestDemo), requireVerifiedEmail)
	dg.GET("/my", withUser(api.listMine), requireAction(core.ActListMyDemos))
	dg.GET("", api.listAll, requireAction(core.ActManageDemo))
	dg.PATCH("/:id", withUser(api.setStatus), requireAction(core.ActManageDemo))
	dg.PATCH("/:id/complete", withUser(api.complete), requireAction(core.ActCompleteDemo))
}

func (api *demoApi) request(ctx echo.Context, usr user.User) error {
	var data demo.NewRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.RequestDemo(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "requesting demo")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Demo requested", "session": s})
}

func (api *demoApi) listMine(ctx echo.Context, usr user.User) error {
	sessions, err := api.svc.ListMine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing my demo sessions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"sessions": nonNil(sessions)})
}

func (api *demoApi) listAll(ctx echo.Context) error {
	sessions, err := api.svc.ListAll(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "listing demo sessions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"sessions": nonNil(sessions)})
}

func (api *demoApi) setStatus(ctx echo.Context, usr user.User) error {
	var data demo.StatusUpdate
	if err := bind(ctx, &data); err != nil {
		return err
	}
	s, err := api.svc.AdminSetDemoStatus(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating demo status")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Demo " + s.Status, "session": s})
}

func (api *demoApi) complete(ctx echo.Context, usr user.User) error {
	s, err := api.svc.Complete(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing demo")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Demo completed", "session": s})
}
