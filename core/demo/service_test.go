package demo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/demo"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/user"
	testutil "github.com/etarip26/EduConnect/tests"
)

func hasType(notes []notification.Notification, typ string) bool {
	for _, n := range notes {
		if n.Type == typ {
			return true
		}
	}
	return false
}

func TestService_RequestDemo(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, student, teacher, adm)

	at := time.Date(2030, 1, 2, 15, 0, 0, 0, time.FixedZone("BST", 6*3600))
	s, err := env.Demos.RequestDemo(ctx, student, demo.NewRequest{MatchID: " " + m.ID + " ", ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, demo.StatusRequested, s.Status)
	assert.Equal(t, m.ID, s.MatchID)
	assert.Equal(t, teacher.ID, s.TeacherID)
	require.NotNil(t, s.ScheduledAt)
	assert.Equal(t, time.UTC, s.ScheduledAt.Location())
	assert.True(t, at.Equal(*s.ScheduledAt))

	_, err = env.Demos.RequestDemo(ctx, teacher, demo.NewRequest{MatchID: m.ID})
	assert.Equal(t, demo.ErrNotMatchStudent, err)
	_, err = env.Demos.RequestDemo(ctx, student, demo.NewRequest{MatchID: "missing"})
	assert.True(t, core.IsNotFound(err))
	_, err = env.Demos.RequestDemo(ctx, student, demo.NewRequest{})
	assert.Error(t, err)

	// the teacher and the admins are told
	for _, id := range []string{teacher.ID, adm.ID} {
		notes, err := env.Notifications.ListMine(ctx, user.User{ID: id})
		require.NoError(t, err)
		assert.True(t, hasType(notes, notification.TypeDemo), id)
	}

	requested, err := env.Demos.ListAll(ctx, "REQUESTED")
	require.NoError(t, err)
	assert.Len(t, requested, 1)
	mine, err := env.Demos.ListMine(ctx, teacher)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestService_RequestDemo_gate(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, student, teacher, adm)

	off := false
	_, err := env.Matches.SetCapabilities(ctx, m.ID, match.Capabilities{IsDemoAllowed: &off})
	require.NoError(t, err)
	_, err = env.Demos.RequestDemo(ctx, student, demo.NewRequest{MatchID: m.ID})
	assert.True(t, core.IsAuthorization(err), "got %v", err)

	on := true
	_, err = env.Matches.SetCapabilities(ctx, m.ID, match.Capabilities{IsDemoAllowed: &on})
	require.NoError(t, err)
	_, err = env.Profiles.SetParentControl(ctx, student.ID, true)
	require.NoError(t, err)
	_, err = env.Demos.RequestDemo(ctx, student, demo.NewRequest{MatchID: m.ID})
	assert.Equal(t, match.ErrParentControl, err)
}

func TestService_lifecycle(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	outsider := env.CreateTeacher(t, "Nadia")
	m := env.CreateMatch(t, student, teacher, adm)

	s, err := env.Demos.RequestDemo(ctx, student, demo.NewRequest{MatchID: m.ID})
	require.NoError(t, err)

	_, err = env.Demos.Complete(ctx, teacher, s.ID)
	assert.Equal(t, demo.ErrNotApproved, err)
	_, err = env.Demos.AdminSetDemoStatus(ctx, adm, s.ID, demo.StatusUpdate{Status: demo.StatusCompleted})
	assert.Error(t, err, "admins cannot complete a session")

	at := time.Now().Add(48 * time.Hour)
	s, err = env.Demos.AdminSetDemoStatus(ctx, adm, s.ID, demo.StatusUpdate{Status: "Approved", ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, demo.StatusApproved, s.Status)
	require.NotNil(t, s.ScheduledAt)

	_, err = env.Demos.Complete(ctx, outsider, s.ID)
	assert.Equal(t, demo.ErrNotParty, err)

	s, err = env.Demos.Complete(ctx, teacher, s.ID)
	require.NoError(t, err)
	assert.Equal(t, demo.StatusCompleted, s.Status)

	_, err = env.Demos.Complete(ctx, student, s.ID)
	assert.Equal(t, demo.ErrAlreadyCompleted, err)
	_, err = env.Demos.AdminSetDemoStatus(ctx, adm, s.ID, demo.StatusUpdate{Status: demo.StatusRejected})
	assert.Equal(t, demo.ErrAlreadyCompleted, err)
	_, err = env.Demos.Complete(ctx, teacher, "missing")
	assert.True(t, core.IsNotFound(err))
}

func TestService_Complete_endedMatch(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, student, teacher, adm)

	s, err := env.Demos.RequestDemo(ctx, student, demo.NewRequest{MatchID: m.ID})
	require.NoError(t, err)
	_, err = env.Demos.AdminSetDemoStatus(ctx, adm, s.ID, demo.StatusUpdate{Status: demo.StatusApproved})
	require.NoError(t, err)

	_, err = env.Matches.End(ctx, student, m.ID)
	require.NoError(t, err)
	_, err = env.Demos.Complete(ctx, teacher, s.ID)
	assert.Equal(t, match.ErrMatchInactive, err)
}
