package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
)

type profileApi struct {
	svc *profile.Service
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *profile.Service) {
	api := profileApi{svc: svc}

	pg := g.Group("/profile")
	pg.GET("/top-teachers", api.topTeachers)
	pg.GET("/me", withUser(api.mine), jwt)
	pg.POST("/student", withUser(api.upsertStudent), jwt, requireAction(core.ActUpsertStudentProfile))
	pg.POST("/teacher", withUser(api.upsertTeacher), jwt, requireAction(core.ActUpsertTeacherProfile))
}

func (api *profileApi) upsertStudent(ctx echo.Context, usr user.User) error {
	var data profile.StudentInput
	if err := bind(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.UpsertStudent(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "saving student profile")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student profile saved", "profile": p})
}

func (api *profileApi) upsertTeacher(ctx echo.Context, usr user.User) error {
	var data profile.TeacherInput
	if err := bind(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.UpsertTeacher(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "saving teacher profile")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teacher profile saved", "profile": p})
}

func (api *profileApi) mine(ctx echo.Context, usr user.User) error {
	mine, err := api.svc.GetMine(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, mine)
}

func (api *profileApi) topTeachers(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	teachers, err := api.svc.TopTeachers(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying top teachers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"teachers": nonNil(teachers)})
}

type searchApi struct {
	profiles *profile.Service
	posts    *tuition.Service
}

func registerSearchAPI(g *echo.Group, jwt echo.MiddlewareFunc, profiles *profile.Service, posts *tuition.Service) {
	api := searchApi{profiles: profiles, posts: posts}

	sg := g.Group("/search", jwt)
	sg.GET("/teachers", api.teachers, requireAction(core.ActSearchTeachers))
	sg.GET("/tuitions", api.tuitions, requireAction(core.ActSearchTuitions))
}

func (api *searchApi) teachers(ctx echo.Context) error {
	filter, err := bindTeacherFilter(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.profiles.SearchTeachers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching teachers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"teachers": nonNil(teachers)})
}

func (api *searchApi) tuitions(ctx echo.Context) error {
	filter, err := bindPostFilter(ctx)
	if err != nil {
		return err
	}
	posts, err := api.posts.SearchPosts(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching posts")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"posts": nonNil(posts)})
}

// nonNil renders empty lists as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
