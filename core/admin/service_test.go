package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/admin"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
	testutil "github.com/etarip26/EduConnect/tests"
)

// lastAdminNotice returns the latest admin notification of the account.
func lastAdminNotice(t *testing.T, env *testutil.Env, usr user.User) notification.Notification {
	t.Helper()
	notes, err := env.Notifications.ListMine(context.Background(), usr)
	require.NoError(t, err)
	for _, n := range notes {
		if n.Type == notification.TypeAdmin {
			return n
		}
	}
	t.Fatalf("no admin notification for %s", usr.Name)
	return notification.Notification{}
}

func TestService_Stats(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	env.CreateMatch(t, student, teacher, adm)

	_, err := env.Tuition.CreatePost(ctx, student, tuition.NewPost{
		Title: "English tutor", ClassLevel: "Class 8", Subjects: []string{"English"}, SalaryMin: 3000, SalaryMax: 4000,
	})
	require.NoError(t, err)

	pending := env.CreateUser(t, user.RoleTeacher, "Nadia")
	_, err = env.Profiles.UpsertTeacher(ctx, pending, profile.TeacherInput{Subjects: []string{"Bangla"}})
	require.NoError(t, err)

	st, err := env.Admin.Stats(ctx, adm)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Users)
	assert.Equal(t, map[string]int{user.RoleAdmin: 1, user.RoleStudent: 1, user.RoleTeacher: 2}, st.UsersByRole)
	assert.Equal(t, 1, st.PendingPosts)
	assert.Zero(t, st.PendingApplications)
	assert.Equal(t, 1, st.ActiveMatches)
	assert.Zero(t, st.RequestedDemos)
	assert.Equal(t, 1, st.UnverifiedTeachers)
	assert.Zero(t, st.UnverifiedStudents)
}

func TestService_accountActions(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	usr := env.CreateUser(t, user.RoleTeacher, "Karim")

	t.Run("self actions", func(t *testing.T) {
		_, err := env.Admin.ToggleSuspend(ctx, adm, adm.ID)
		assert.Equal(t, admin.ErrSelfAction, err)
		_, err = env.Admin.SetBan(ctx, adm, adm.ID, admin.BanInput{Banned: true})
		assert.Equal(t, admin.ErrSelfAction, err)
		assert.Equal(t, admin.ErrSelfAction, env.Admin.DeleteUser(ctx, adm, adm.ID))
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := env.Admin.ToggleSuspend(ctx, adm, "ghost")
		assert.True(t, core.IsNotFound(err))
		_, err = env.Admin.SetBan(ctx, adm, "ghost", admin.BanInput{Banned: true})
		assert.True(t, core.IsNotFound(err))
		assert.True(t, core.IsNotFound(env.Admin.DeleteUser(ctx, adm, "ghost")))
	})

	t.Run("suspend toggles", func(t *testing.T) {
		got, err := env.Admin.ToggleSuspend(ctx, adm, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.IsSuspended)
		assert.Equal(t, "Your account has been suspended.", lastAdminNotice(t, env, usr).Message)

		got, err = env.Admin.ToggleSuspend(ctx, adm, usr.ID)
		require.NoError(t, err)
		assert.False(t, got.IsSuspended)
	})

	t.Run("ban with reason", func(t *testing.T) {
		got, err := env.Admin.SetBan(ctx, adm, usr.ID, admin.BanInput{Banned: true, Reason: "fake documents"})
		require.NoError(t, err)
		assert.True(t, got.IsBanned)
		assert.Equal(t, "fake documents", got.BanReason)

		got, err = env.Admin.SetBan(ctx, adm, usr.ID, admin.BanInput{Banned: false})
		require.NoError(t, err)
		assert.False(t, got.IsBanned)
		assert.Empty(t, got.BanReason)
	})

	t.Run("promote", func(t *testing.T) {
		got, err := env.Admin.PromoteToAdmin(ctx, adm, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.IsAdmin())
		_, err = env.Admin.PromoteToAdmin(ctx, adm, usr.ID)
		assert.True(t, core.IsConflict(err))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, env.Admin.DeleteUser(ctx, adm, usr.ID))
		_, err := env.Users.GetByID(ctx, usr.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_verification(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	teacher := env.CreateUser(t, user.RoleTeacher, "Karim")
	_, err := env.Profiles.UpsertTeacher(ctx, teacher, profile.TeacherInput{Subjects: []string{"Math"}})
	require.NoError(t, err)

	p, err := env.Admin.VerifyTeacher(ctx, adm, teacher.ID, true)
	require.NoError(t, err)
	assert.True(t, p.IsVerified)
	assert.Equal(t, "Your teacher profile has been verified.", lastAdminNotice(t, env, teacher).Message)

	p, err = env.Admin.VerifyNID(ctx, adm, teacher.ID, true)
	require.NoError(t, err)
	assert.True(t, p.IsNIDVerified)
	assert.True(t, p.IsVerified)

	p, err = env.Admin.VerifyTeacher(ctx, adm, teacher.ID, false)
	require.NoError(t, err)
	assert.False(t, p.IsVerified)
	assert.Equal(t, "Your teacher profile verification has been revoked.", lastAdminNotice(t, env, teacher).Message)

	_, err = env.Admin.VerifyStudent(ctx, adm, teacher.ID, true)
	assert.True(t, core.IsNotFound(err))
	_, err = env.Admin.VerifyTeacher(ctx, adm, "ghost", true)
	assert.True(t, core.IsNotFound(err))
}

func TestService_parentControl(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, student, teacher, adm)

	p, err := env.Admin.SetParentControl(ctx, adm, student.ID, true)
	require.NoError(t, err)
	assert.True(t, p.ParentControlEnabled)
	assert.Contains(t, lastAdminNotice(t, env, student).Message, "Parent control has been enabled")

	// the student is blocked, the teacher is not
	assert.Error(t, env.Gate.Check(ctx, m, student, match.CapabilityChat))
	assert.NoError(t, env.Gate.Check(ctx, m, teacher, match.CapabilityChat))

	_, err = env.Admin.SetParentControl(ctx, adm, student.ID, false)
	require.NoError(t, err)
	assert.NoError(t, env.Gate.Check(ctx, m, student, match.CapabilityChat))
}

func TestService_SetMatchCapabilities(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, student, teacher, adm)

	off := false
	got, err := env.Admin.SetMatchCapabilities(ctx, adm, m.ID, match.Capabilities{IsDemoAllowed: &off})
	require.NoError(t, err)
	assert.True(t, got.IsChatAllowed)
	assert.False(t, got.IsDemoAllowed)

	_, err = env.Admin.SetMatchCapabilities(ctx, adm, "ghost", match.Capabilities{IsChatAllowed: &off})
	assert.True(t, core.IsNotFound(err))
}
