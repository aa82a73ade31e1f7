package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

// userHandler is a handler of an authenticated route.
type userHandler func(ctx echo.Context, usr user.User) error

// withUser hands the authenticated account to `h`.
func withUser(h userHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return err
		}
		return h(ctx, usr)
	}
}

// requireAction lets the request through if the caller's role may perform `act`.
func requireAction(act core.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if !core.Allowed(usr.Role, act) {
				return errForbidden
			}
			return next(ctx)
		}
	}
}

// requireVerifiedEmail guards the actions that commit an account to a tuition (posting, applying).
func requireVerifiedEmail(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return err
		}
		if !usr.IsEmailVerified {
			return errEmailNotVerified
		}
		return next(ctx)
	}
}
