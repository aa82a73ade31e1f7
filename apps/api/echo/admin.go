package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/admin"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/user"
)

type adminApi struct {
	svc *admin.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *admin.Service) {
	api := adminApi{svc: svc}

	ag := g.Group("/admin", jwt, requireAction(core.ActAdmin))
	ag.GET("/stats", withUser(api.stats))

	ag.GET("/users", api.listUsers)
	ag.PATCH("/users/:userId/suspend", withUser(api.toggleSuspend))
	ag.PATCH("/users/:userId/ban", withUser(api.ban))
	ag.PATCH("/users/:userId/promote", withUser(api.promote))
	ag.DELETE("/users/:userId", withUser(api.deleteUser))

	ag.GET("/profiles/teachers", api.listTeachers)
	ag.GET("/profiles/students", api.listStudents)
	ag.PATCH("/teachers/:teacherId/verify", withUser(api.verifyTeacher))
	ag.PATCH("/teachers/:teacherId/nid", withUser(api.verifyNID))
	ag.PATCH("/students/:studentId/verify", withUser(api.verifyStudent))
	ag.PATCH("/students/:studentId/parent-control", withUser(api.parentControl))

	ag.PATCH("/matches/:id/capabilities", withUser(api.capabilities))
	ag.POST("/notices", withUser(api.notice))
}

func (api *adminApi) stats(ctx echo.Context, usr user.User) error {
	stats, err := api.svc.Stats(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"stats": stats})
}

func (api *adminApi) listUsers(ctx echo.Context) error {
	var filter user.QueryFilter
	err := echo.QueryParamsBinder(ctx).
		String("search", &filter.Search).
		String("role", &filter.Role).
		BindError()
	if err != nil {
		return core.NewValidationError(errors.New("invalid query parameters"))
	}
	if filter.Suspended, err = optionalBool(ctx, "suspended"); err != nil {
		return err
	}
	if filter.Banned, err = optionalBool(ctx, "banned"); err != nil {
		return err
	}
	filter.Clean()

	users, err := api.svc.ListUsers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"users": nonNil(users)})
}

func (api *adminApi) toggleSuspend(ctx echo.Context, usr user.User) error {
	target, err := api.svc.ToggleSuspend(ctx.Request().Context(), usr, ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "toggling suspension")
	}
	msg := "User unsuspended"
	if target.IsSuspended {
		msg = "User suspended"
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": msg, "user": target})
}

func (api *adminApi) ban(ctx echo.Context, usr user.User) error {
	var data admin.BanInput
	if err := bind(ctx, &data); err != nil {
		return err
	}
	target, err := api.svc.SetBan(ctx.Request().Context(), usr, ctx.Param("userId"), data)
	if err != nil {
		return errors.Wrap(err, "setting ban")
	}
	msg := "User unbanned"
	if target.IsBanned {
		msg = "User banned"
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": msg, "user": target})
}

func (api *adminApi) promote(ctx echo.Context, usr user.User) error {
	target, err := api.svc.PromoteToAdmin(ctx.Request().Context(), usr, ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "promoting user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "User promoted to admin", "user": target})
}

func (api *adminApi) deleteUser(ctx echo.Context, usr user.User) error {
	if err := api.svc.DeleteUser(ctx.Request().Context(), usr, ctx.Param("userId")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) listTeachers(ctx echo.Context) error {
	filter, err := bindTeacherFilter(ctx)
	if err != nil {
		return err
	}
	teachers, err := api.svc.ListTeacherProfiles(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying teacher profiles")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"teachers": nonNil(teachers)})
}

func (api *adminApi) listStudents(ctx echo.Context) error {
	verified, err := optionalBool(ctx, "verified")
	if err != nil {
		return err
	}
	students, err := api.svc.ListStudentProfiles(ctx.Request().Context(), verified)
	if err != nil {
		return errors.Wrap(err, "querying student profiles")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": nonNil(students)})
}

func (api *adminApi) verifyTeacher(ctx echo.Context, usr user.User) error {
	var data VerifyRequest
	if err := api.bindValid(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.VerifyTeacher(ctx.Request().Context(), usr, ctx.Param("teacherId"), *data.Verified)
	if err != nil {
		return errors.Wrap(err, "verifying teacher")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teacher profile updated", "profile": p})
}

func (api *adminApi) verifyNID(ctx echo.Context, usr user.User) error {
	var data VerifyRequest
	if err := api.bindValid(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.VerifyNID(ctx.Request().Context(), usr, ctx.Param("teacherId"), *data.Verified)
	if err != nil {
		return errors.Wrap(err, "verifying teacher NID")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teacher NID updated", "profile": p})
}

func (api *adminApi) verifyStudent(ctx echo.Context, usr user.User) error {
	var data VerifyRequest
	if err := api.bindValid(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.VerifyStudent(ctx.Request().Context(), usr, ctx.Param("studentId"), *data.Verified)
	if err != nil {
		return errors.Wrap(err, "verifying student")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student profile updated", "profile": p})
}

func (api *adminApi) parentControl(ctx echo.Context, usr user.User) error {
	var data ToggleRequest
	if err := api.bindValid(ctx, &data); err != nil {
		return err
	}
	p, err := api.svc.SetParentControl(ctx.Request().Context(), usr, ctx.Param("studentId"), *data.Enabled)
	if err != nil {
		return errors.Wrap(err, "setting parent control")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Parent control updated", "profile": p})
}

func (api *adminApi) capabilities(ctx echo.Context, usr user.User) error {
	var data match.Capabilities
	if err := bind(ctx, &data); err != nil {
		return err
	}
	m, err := api.svc.SetMatchCapabilities(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting match capabilities")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Match capabilities updated", "match": m})
}

func (api *adminApi) notice(ctx echo.Context, usr user.User) error {
	var data notification.NewNotice
	if err := bind(ctx, &data); err != nil {
		return err
	}
	n, err := api.svc.SendNotice(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "sending notice")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Notice sent", "notification": n})
}

// bindValid binds and checks the toggle bodies, which carry a single required flag.
func (api *adminApi) bindValid(ctx echo.Context, dst interface{}) error {
	if err := bind(ctx, dst); err != nil {
		return err
	}
	if err := ctx.Validate(dst); err != nil {
		return err
	}
	return nil
}
