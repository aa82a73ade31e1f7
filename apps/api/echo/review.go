package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/review"
	"github.com/etarip26/EduConnect/core/user"
)

type reviewApi struct {
	svc *review.Service
}

func registerReviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *review.Service) {
	api := reviewApi{svc: svc}

	rg := g.Group("/reviews")
	rg.GET("/teacher/:teacherId", api.listForTeacher)
	rg.POST("/teacher/:teacherId", withUser(api.create), jwt, requireAction(core.ActWriteReview))
}

func (api *reviewApi) create(ctx echo.Context, usr user.User) error {
	var data review.NewReview
	if err := bind(ctx, &data); err != nil {
		return err
	}
	r, err := api.svc.Create(ctx.Request().Context(), usr, ctx.Param("teacherId"), data)
	if err != nil {
		return errors.Wrap(err, "creating review")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Review saved", "review": r})
}

func (api *reviewApi) listForTeacher(ctx echo.Context) error {
	reviews, err := api.svc.ListForTeacher(ctx.Request().Context(), ctx.Param("teacherId"))
	if err != nil {
		return errors.Wrap(err, "listing reviews")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"reviews": nonNil(reviews)})
}
