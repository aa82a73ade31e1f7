package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
)

type tuitionApi struct {
	svc *tuition.Service
}

func registerTuitionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *tuition.Service) {
	api := tuitionApi{svc: svc}

	tg := g.Group("/tuition")
	tg.GET("/posts", api.listOpen)
	tg.GET("/posts/nearby", api.nearby)

	ag := tg.Group("", jwt)
	ag.POST("/posts", withUser(api.create), requireAction(core.ActCreatePost), requireVerifiedEmail)
	ag.GET("/posts/my", withUser(api.listMine), requireAction(core.ActListMyPosts))
	ag.GET("/posts/:postId", api.retrieve)
	ag.PATCH("/posts/:postId/close", withUser(api.close), requireAction(core.ActClosePost))
	ag.POST("/posts/:postId/apply", withUser(api.apply), requireAction(core.ActApply), requireVerifiedEmail)
	ag.GET("/posts/:postId/applications", withUser(api.listForPost), requireAction(core.ActListPostApps))
	ag.GET("/applications/my", withUser(api.listMyApplications), requireAction(core.ActListMyApps))

	decide := requireAction(core.ActDecideApplication)
	ag.POST("/applications/accept/:appId", withUser(api.decide(tuition.DecisionAccept)), decide)
	ag.PATCH("/applications/accept/:appId", withUser(api.decide(tuition.DecisionAccept)), decide)
	ag.POST("/applications/reject/:appId", withUser(api.decide(tuition.DecisionReject)), decide)
	ag.PATCH("/applications/reject/:appId", withUser(api.decide(tuition.DecisionReject)), decide)

	adm := ag.Group("/admin")
	adm.GET("/posts", api.adminListPosts, requireAction(core.ActReviewPost))
	adm.PATCH("/posts/:postId/status", withUser(api.reviewPost), requireAction(core.ActReviewPost))
	adm.GET("/applications", api.adminListApplications, requireAction(core.ActReviewApplication))
	adm.PATCH("/applications/:appId/status", withUser(api.reviewApplication), requireAction(core.ActReviewApplication))
}

func (api *tuitionApi) create(ctx echo.Context, usr user.User) error {
	var data tuition.NewPost
	if err := bind(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.CreatePost(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Post submitted for review", "post": p})
}

func (api *tuitionApi) listOpen(ctx echo.Context) error {
	posts, err := api.svc.ListOpenPosts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing open posts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"posts": nonNil(posts)})
}

func (api *tuitionApi) nearby(ctx echo.Context) error {
	nq, err := bindNearbyQuery(ctx)
	if err != nil {
		return err
	}
	posts, err := api.svc.NearbyPosts(ctx.Request().Context(), nq)
	if err != nil {
		return errors.Wrap(err, "querying nearby posts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"posts": nonNil(posts), "page": nq.Page.Page, "perPage": nq.Page.Limit})
}

func (api *tuitionApi) listMine(ctx echo.Context, usr user.User) error {
	posts, err := api.svc.ListMyPosts(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing my posts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"posts": nonNil(posts)})
}

func (api *tuitionApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetPost(ctx.Request().Context(), ctx.Param("postId"))
	if err != nil {
		return errors.Wrap(err, "finding post")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"post": p})
}

func (api *tuitionApi) close(ctx echo.Context, usr user.User) error {
	p, err := api.svc.ClosePost(ctx.Request().Context(), usr, ctx.Param("postId"))
	if err != nil {
		return errors.Wrap(err, "closing post")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Post closed", "post": p})
}

func (api *tuitionApi) apply(ctx echo.Context, usr user.User) error {
	a, err := api.svc.ApplyToPost(ctx.Request().Context(), usr, ctx.Param("postId"))
	if err != nil {
		return errors.Wrap(err, "applying to post")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Application submitted for review", "application": a})
}

func (api *tuitionApi) listForPost(ctx echo.Context, usr user.User) error {
	candidates, err := api.svc.ListApplicationsForPost(ctx.Request().Context(), usr, ctx.Param("postId"))
	if err != nil {
		return errors.Wrap(err, "listing post applications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"applications": nonNil(candidates)})
}

func (api *tuitionApi) listMyApplications(ctx echo.Context, usr user.User) error {
	apps, err := api.svc.ListMyApplications(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "listing my applications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"applications": nonNil(apps)})
}

func (api *tuitionApi) decide(decision string) userHandler {
	return func(ctx echo.Context, usr user.User) error {
		var data tuition.Decision
		if err := bind(ctx, &data); err != nil {
			return err
		}
		data.Decision = decision
		a, err := api.svc.StudentDecideApplication(ctx.Request().Context(), usr, ctx.Param("appId"), data)
		if err != nil {
			return errors.Wrapf(err, "deciding application (%s)", decision)
		}
		msg := "Application accepted"
		if decision == tuition.DecisionReject {
			msg = "Application rejected"
		}
		return ctx.JSON(http.StatusOK, echo.Map{"message": msg, "application": a})
	}
}

func (api *tuitionApi) adminListPosts(ctx echo.Context) error {
	posts, err := api.svc.ListPosts(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"posts": nonNil(posts)})
}

func (api *tuitionApi) reviewPost(ctx echo.Context, usr user.User) error {
	var data tuition.PostReview
	if err := bind(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.AdminReviewPost(ctx.Request().Context(), usr, ctx.Param("postId"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing post")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Post " + p.Status, "post": p})
}

func (api *tuitionApi) adminListApplications(ctx echo.Context) error {
	apps, err := api.svc.ListApplications(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"applications": nonNil(apps)})
}

func (api *tuitionApi) reviewApplication(ctx echo.Context, usr user.User) error {
	var data tuition.ApplicationReview
	if err := bind(ctx, &data); err != nil {
		return err
	}
	a, err := api.svc.AdminReviewApplication(ctx.Request().Context(), usr, ctx.Param("appId"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing application")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Application " + a.Status, "application": a})
}
