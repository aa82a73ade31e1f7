package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/user"
)

type matchApi struct {
	svc *match.Service
}

func registerMatchAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *match.Service) {
	api := matchApi{svc: svc}

	mg := g.Group("/matches", jwt, requireAction(core.ActListMatches))
	mg.GET("/my", withUser(api.listMine))
	mg.GET("/:id", withUser(api.retrieve))
	mg.PATCH("/:id/end", withUser(api.end), requireAction(core.ActEndMatch))
}

func (api *matchApi) listMine(ctx echo.Context, usr user.User) error {
	matches, err := api.svc.ListMine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing matches")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"matches": nonNil(matches)})
}

func (api *matchApi) retrieve(ctx echo.Context, usr user.User) error {
	m, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding match")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"match": m})
}

func (api *matchApi) end(ctx echo.Context, usr user.User) error {
	m, err := api.svc.End(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "ending match")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Match ended", "match": m})
}
