package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
	appfs "github.com/etarip26/EduConnect/fs"
	emailsvc "github.com/etarip26/EduConnect/services/email"
	testutil "github.com/etarip26/EduConnect/tests"
)

func setup(t *testing.T) *testutil.Env {
	t.Helper()
	env := testutil.NewEnv()
	core.ParseEmailTemplates(appfs.FS, env.Conf, env.Logger)
	emailsvc.ResetSentMessages()
	return env
}

func lastMail(t *testing.T) core.EmailMessage {
	t.Helper()
	msg, ok := emailsvc.LastSentMessage()
	require.True(t, ok, "no email sent")
	return msg
}

func templateValue(t *testing.T, msg core.EmailMessage, key string) string {
	t.Helper()
	data, ok := msg.TemplateData.(map[string]interface{})
	require.True(t, ok, "unexpected template data %T", msg.TemplateData)
	val, _ := data[key].(string)
	return val
}

func newUser(email string) user.NewUser {
	return user.NewUser{
		Name:     "Rahim Uddin",
		Email:    email,
		Password: testutil.Password,
		Role:     user.RoleStudent,
	}
}

func TestService_Register(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	usr, err := env.Users.Register(ctx, newUser(" Rahim@Test.BD "))
	require.NoError(t, err)
	assert.Equal(t, "rahim@test.bd", usr.Email)
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.False(t, usr.IsEmailVerified)
	assert.NotEqual(t, testutil.Password, string(usr.PasswordHash))

	tests := []struct {
		name string
		nu   func(nu *user.NewUser)
	}{
		{name: "duplicate email", nu: func(nu *user.NewUser) { nu.Email = "RAHIM@test.bd" }},
		{name: "admin role", nu: func(nu *user.NewUser) { nu.Role = user.RoleAdmin }},
		{name: "unknown role", nu: func(nu *user.NewUser) { nu.Role = "parent" }},
		{name: "numeric password", nu: func(nu *user.NewUser) { nu.Password = "1234567890" }},
		{name: "short password", nu: func(nu *user.NewUser) { nu.Password = "a1b2" }},
		{name: "password like the email", nu: func(nu *user.NewUser) { nu.Password = "other@test.bd" }},
		{name: "password mismatch", nu: func(nu *user.NewUser) { nu.PasswordConfirm = "nope" }},
		{name: "invalid email", nu: func(nu *user.NewUser) { nu.Email = "rahim" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := newUser("other@test.bd")
			tt.nu(&nu)
			_, err := env.Users.Register(ctx, nu)
			assert.Error(t, err)
		})
	}

	count, err := env.Users.CountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count[user.RoleStudent])
}

func TestService_Authenticate(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := env.CreateUser(t, user.RoleTeacher, "Karim")

	got, err := env.Users.Authenticate(ctx, " "+usr.Email+" ", testutil.Password)
	require.NoError(t, err)
	assert.False(t, got.LastLogin.IsZero())

	_, err = env.Users.Authenticate(ctx, usr.Email, "wrong")
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = env.Users.Authenticate(ctx, "nobody@test.bd", testutil.Password)
	assert.Equal(t, user.ErrInvalidCredentials, err)

	_, err = env.Users.SetSuspended(ctx, usr.ID, true)
	require.NoError(t, err)
	_, err = env.Users.Authenticate(ctx, usr.Email, testutil.Password)
	assert.Equal(t, user.ErrAccountSuspended, err)

	_, err = env.Users.SetSuspended(ctx, usr.ID, false)
	require.NoError(t, err)
	banned, err := env.Users.SetBanned(ctx, usr.ID, true, "  spam  ")
	require.NoError(t, err)
	assert.Equal(t, "spam", banned.BanReason)
	_, err = env.Users.Authenticate(ctx, usr.Email, testutil.Password)
	assert.Equal(t, user.ErrAccountBanned, err)

	unbanned, err := env.Users.SetBanned(ctx, usr.ID, false, "ignored")
	require.NoError(t, err)
	assert.Empty(t, unbanned.BanReason)
}

func TestService_emailOTP(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr, err := env.Users.Register(ctx, newUser("rahim@test.bd"))
	require.NoError(t, err)

	_, err = env.Users.VerifyEmailOTP(ctx, usr, "000000")
	assert.Equal(t, user.ErrOTPNotRequested, err)

	require.NoError(t, env.Users.RequestEmailOTP(ctx, usr))
	msg := lastMail(t)
	assert.Equal(t, "rahim@test.bd", msg.To[0].Address)
	code := templateValue(t, msg, "Code")
	require.Len(t, code, 6)
	assert.Contains(t, msg.TextContent, code)

	usr, err = env.Users.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = env.Users.VerifyEmailOTP(ctx, usr, wrong)
	assert.Equal(t, user.ErrOTPInvalid, err)

	verified, err := env.Users.VerifyEmailOTP(ctx, usr, " "+code+" ")
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified)
	assert.Empty(t, verified.EmailOTPCode)

	assert.Equal(t, user.ErrEmailVerified, env.Users.RequestEmailOTP(ctx, verified))
	_, err = env.Users.VerifyEmailOTP(ctx, verified, code)
	assert.Equal(t, user.ErrEmailVerified, err)
}

func TestService_emailOTP_expired(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	conf := testutil.Config()
	conf.Server.OTPTimeoutDelta = -time.Minute
	svc := user.NewService(env.UserRepo, env.Mail, env.Validate, conf)

	usr, err := svc.Register(ctx, newUser("rahim@test.bd"))
	require.NoError(t, err)
	require.NoError(t, svc.RequestEmailOTP(ctx, usr))
	code := templateValue(t, lastMail(t), "Code")

	usr, err = svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	_, err = svc.VerifyEmailOTP(ctx, usr, code)
	assert.Equal(t, user.ErrOTPExpired, err)
}

func TestService_passwordReset(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	usr := env.CreateUser(t, user.RoleStudent, "Rahim")

	err := env.Users.RequestPasswordReset(ctx, "nobody@test.bd")
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, env.Users.RequestPasswordReset(ctx, usr.Email))
	msg := lastMail(t)
	uid := templateValue(t, msg, "UID")
	token := templateValue(t, msg, "Token")
	require.NotEmpty(t, uid)
	require.NotEmpty(t, token)

	const newPwd = "n3w-Passw0rd!"
	reset := user.ResetUserPassword{Token: token, UID: uid, Password: newPwd, PasswordConfirm: newPwd}

	bad := reset
	bad.UID = "bm9wZQ"
	_, err = env.Users.ResetPassword(ctx, bad)
	assert.Equal(t, user.ErrInvalidResetLink, err)
	bad = reset
	bad.Token = "HE4TS-sigsig-sig"
	_, err = env.Users.ResetPassword(ctx, bad)
	assert.Equal(t, user.ErrInvalidResetLink, err)
	bad = reset
	bad.Password, bad.PasswordConfirm = usr.Email, usr.Email
	_, err = env.Users.ResetPassword(ctx, bad)
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	assert.Equal(t, "pwdtoosim", vErrs[0].Tag())

	_, err = env.Users.ResetPassword(ctx, reset)
	require.NoError(t, err)
	_, err = env.Users.Authenticate(ctx, usr.Email, newPwd)
	assert.NoError(t, err)

	// the link is single use: the new password invalidates it
	_, err = env.Users.ResetPassword(ctx, reset)
	assert.Equal(t, user.ErrInvalidResetLink, err)
}

func TestService_Query(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	env.CreateUser(t, user.RoleStudent, "Rahim")
	karim := env.CreateUser(t, user.RoleTeacher, "Karim Hasan")
	env.CreateAdmin(t)
	_, err := env.Users.SetSuspended(ctx, karim.ID, true)
	require.NoError(t, err)

	suspended := true
	tests := []struct {
		name   string
		filter user.QueryFilter
		want   int
	}{
		{name: "all", want: 3},
		{name: "by role", filter: user.QueryFilter{Role: user.RoleTeacher}, want: 1},
		{name: "by name", filter: user.QueryFilter{Search: "hasan"}, want: 1},
		{name: "suspended", filter: user.QueryFilter{Suspended: &suspended}, want: 1},
		{name: "no match", filter: user.QueryFilter{Search: "zzz"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := env.Users.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, users, tt.want)
		})
	}
}
