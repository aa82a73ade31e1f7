package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/user"
	appfs "github.com/etarip26/EduConnect/fs"
	emailsvc "github.com/etarip26/EduConnect/services/email"
	testutil "github.com/etarip26/EduConnect/tests"
)

func TestService_Notify(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	usr := env.CreateUser(t, user.RoleStudent, "Rahim")

	env.Notifications.Notify(ctx, notification.Notification{UserID: usr.ID, Title: "first", Message: "m"})
	env.Notifications.Notify(ctx, notification.Notification{
		UserID: usr.ID, Title: "second", Message: "m", Type: notification.TypeMatch, RelatedID: "m-1",
	})

	notes, err := env.Notifications.ListMine(ctx, usr)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	byTitle := make(map[string]notification.Notification)
	for _, n := range notes {
		byTitle[n.Title] = n
	}
	assert.Equal(t, notification.TypeInfo, byTitle["first"].Type)
	assert.False(t, byTitle["first"].IsRead)
	assert.Equal(t, notification.TypeMatch, byTitle["second"].Type)
	assert.Equal(t, "m-1", byTitle["second"].RelatedID)
	assert.False(t, notes[0].CreatedAt.Before(notes[1].CreatedAt))

	events := env.Events.Events(notification.EventCreated)
	require.Len(t, events, 2)
}

func TestService_NotifyRole(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	admins := []user.User{env.CreateAdmin(t), env.CreateAdmin(t)}
	student := env.CreateUser(t, user.RoleStudent, "Rahim")

	env.Notifications.NotifyRole(ctx, user.RoleAdmin, notification.Notification{Title: "review", Message: "m"})

	for _, adm := range admins {
		notes, err := env.Notifications.ListMine(ctx, adm)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, adm.ID, notes[0].UserID)
	}
	notes, err := env.Notifications.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	core.ParseEmailTemplates(appfs.FS, env.Conf, env.Logger)
	emailsvc.ResetSentMessages()
	usr := env.CreateUser(t, user.RoleTeacher, "Karim")

	tests := []struct {
		name    string
		nn      notification.NewNotice
		checkFn func(err error) bool
	}{
		{name: "missing title", nn: notification.NewNotice{UserID: usr.ID, Message: "m"}, checkFn: func(err error) bool { return err != nil }},
		{name: "blank message", nn: notification.NewNotice{UserID: usr.ID, Title: "t", Message: "  "}, checkFn: func(err error) bool { return err != nil }},
		{name: "unknown recipient", nn: notification.NewNotice{UserID: "ghost", Title: "t", Message: "m"}, checkFn: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Notifications.Create(ctx, tt.nn)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}
	_, sent := emailsvc.LastSentMessage()
	assert.False(t, sent)

	n, err := env.Notifications.Create(ctx, notification.NewNotice{UserID: usr.ID, Title: " Profile ", Message: "Please add a photo"})
	require.NoError(t, err)
	assert.Equal(t, "Profile", n.Title)
	assert.Equal(t, notification.TypeAdmin, n.Type)

	msg, sent := emailsvc.LastSentMessage()
	require.True(t, sent)
	assert.Equal(t, usr.Email, msg.To[0].Address)
	assert.Equal(t, "Profile", msg.Subject)
	assert.Contains(t, msg.TextContent, "Please add a photo")
}

func TestService_readAndDelete(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	usr := env.CreateUser(t, user.RoleStudent, "Rahim")
	other := env.CreateUser(t, user.RoleStudent, "Salma")
	for _, title := range []string{"a", "b", "c"} {
		env.Notifications.Notify(ctx, notification.Notification{UserID: usr.ID, Title: title, Message: "m"})
	}
	env.Notifications.Notify(ctx, notification.Notification{UserID: other.ID, Title: "x", Message: "m"})

	notes, err := env.Notifications.ListMine(ctx, usr)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	first := notes[0]

	// other accounts' notifications look missing
	_, err = env.Notifications.MarkRead(ctx, other, first.ID)
	assert.Equal(t, notification.ErrNotFound, err)
	assert.Equal(t, notification.ErrNotFound, env.Notifications.Delete(ctx, other, first.ID))

	n, err := env.Notifications.MarkRead(ctx, usr, first.ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)

	count, err := env.Notifications.MarkAllRead(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = env.Notifications.MarkAllRead(ctx, usr)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, env.Notifications.Delete(ctx, usr, first.ID))
	_, err = env.Notifications.MarkRead(ctx, usr, first.ID)
	assert.True(t, core.IsNotFound(err))

	notes, err = env.Notifications.ListMine(ctx, usr)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	notes, err = env.Notifications.ListMine(ctx, other)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.False(t, notes[0].IsRead)
}
