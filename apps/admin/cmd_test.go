package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
	testutil "github.com/etarip26/EduConnect/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv()
	return &commandLine{usrSvc: env.Users}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func withPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	runMigrationFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, env := setup(t)
	usr := env.CreateUser(t, user.RoleStudent, "Rahim")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.com"}, pwd: "n3w-Passw0rd"},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, pwd: "n3w-Passw0rd"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			withPassword(tt.pwd)
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			if tt.name == "user not found" {
				assert.True(t, core.IsNotFound(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			_, err = env.Users.Authenticate(context.Background(), usr.Email, tt.pwd)
			assert.NoError(t, err)
			_, err = env.Users.Authenticate(context.Background(), usr.Email, testutil.Password)
			assert.Error(t, err, "the old password still works")
		})
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli, env := setup(t)
	ctx := context.Background()

	withPassword("")
	assert.Equal(t, errHelp, cli.run([]string{"admin", "createadmin", "-name", "Root", "-email", "root@test.com"}))
	assert.Equal(t, errHelp, cli.run([]string{"admin", "createadmin", "-email", "root@test.com"}))

	withPassword("r00t-Passw0rd")
	require.NoError(t, cli.run([]string{"admin", "createadmin", "-name", "Root", "-email", " ROOT@test.com "}))
	adm, err := env.Users.Authenticate(ctx, "root@test.com", "r00t-Passw0rd")
	require.NoError(t, err)
	assert.True(t, adm.IsAdmin())
	assert.Equal(t, "Root", adm.Name)

	// an existing account is promoted and gets the new password
	teacher := env.CreateUser(t, user.RoleTeacher, "Karim")
	withPassword("pr0moted-Passw0rd")
	require.NoError(t, cli.run([]string{"admin", "createadmin", "-name", "Ignored", "-email", teacher.Email}))
	promoted, err := env.Users.Authenticate(ctx, teacher.Email, "pr0moted-Passw0rd")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())
	assert.Equal(t, teacher.ID, promoted.ID)
	assert.Equal(t, "Karim", promoted.Name)
}
