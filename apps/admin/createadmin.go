package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

// createAdmin creates an admin account, or promotes the existing account of `email` and resets its password.
func (cli *commandLine) createAdmin(name, email, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if !core.IsNotFound(err) {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Name:     name,
			Email:    email,
			Password: pwd,
			Role:     user.RoleAdmin,
		})
		return errors.Wrap(err, "creating admin")
	}

	if !usr.IsAdmin() {
		if usr, err = cli.usrSvc.PromoteToAdmin(ctx, usr.ID); err != nil {
			return errors.Wrap(err, "promoting user")
		}
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return errors.Wrap(err, "setting password")
}
