package announcement_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/announcement"
	testutil "github.com/etarip26/EduConnect/tests"
)

func timePtr(t time.Time) *time.Time { return &t }

func boolPtr(b bool) *bool { return &b }

func TestAnnouncement_VisibleAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a    announcement.Announcement
		want bool
	}{
		{name: "started", a: announcement.Announcement{IsActive: true, DisplayStartDate: now.Add(-time.Hour)}, want: true},
		{name: "inactive", a: announcement.Announcement{DisplayStartDate: now.Add(-time.Hour)}},
		{name: "not started", a: announcement.Announcement{IsActive: true, DisplayStartDate: now.Add(time.Hour)}},
		{
			name: "ended",
			a:    announcement.Announcement{IsActive: true, DisplayStartDate: now.Add(-2 * time.Hour), DisplayEndDate: timePtr(now.Add(-time.Hour))},
		},
		{
			name: "ends later",
			a:    announcement.Announcement{IsActive: true, DisplayStartDate: now.Add(-2 * time.Hour), DisplayEndDate: timePtr(now.Add(time.Hour))},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.VisibleAt(now))
		})
	}
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)

	start := time.Now().Add(time.Hour)
	tests := []struct {
		name string
		in   announcement.Input
	}{
		{name: "missing title", in: announcement.Input{Description: "d"}},
		{name: "bad priority", in: announcement.Input{Title: "t", Description: "d", Priority: "urgent"}},
		{name: "bad type", in: announcement.Input{Title: "t", Description: "d", Type: "promo"}},
		{name: "bad url", in: announcement.Input{Title: "t", Description: "d", ActionURL: "not a url"}},
		{
			name: "ends before start",
			in:   announcement.Input{Title: "t", Description: "d", DisplayStartDate: &start, DisplayEndDate: timePtr(start.Add(-time.Minute))},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Announcements.Create(ctx, adm, tt.in)
			assert.Error(t, err)
		})
	}

	a, err := env.Announcements.Create(ctx, adm, announcement.Input{Title: " Exams ", Description: "Schedule", Priority: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, "Exams", a.Title)
	assert.Equal(t, announcement.PriorityHigh, a.Priority)
	assert.Equal(t, "info", a.Type)
	assert.True(t, a.IsActive)
	assert.Equal(t, adm.ID, a.CreatedBy)
	assert.False(t, a.DisplayStartDate.IsZero())
}

func TestService_ListActive(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	now := time.Now().UTC()

	for i := 0; i < 11; i++ {
		_, err := env.Announcements.Create(ctx, adm, announcement.Input{
			Title:            fmt.Sprintf("low %d", i),
			Description:      "d",
			Priority:         announcement.PriorityLow,
			DisplayStartDate: timePtr(now.Add(-time.Duration(i+1) * time.Minute)),
		})
		require.NoError(t, err)
	}
	high, err := env.Announcements.Create(ctx, adm, announcement.Input{
		Title: "high", Description: "d", Priority: announcement.PriorityHigh,
		DisplayStartDate: timePtr(now.Add(-time.Hour)),
	})
	require.NoError(t, err)
	_, err = env.Announcements.Create(ctx, adm, announcement.Input{
		Title: "future", Description: "d", Priority: announcement.PriorityHigh,
		DisplayStartDate: timePtr(now.Add(time.Hour)),
	})
	require.NoError(t, err)

	list, err := env.Announcements.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 10)
	assert.Equal(t, high.ID, list[0].ID)
	assert.Equal(t, "low 0", list[1].Title)
	assert.Equal(t, "low 8", list[9].Title)

	all, err := env.Announcements.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 13)
}

func TestService_UpdateDelete(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	now := time.Now().UTC()

	a, err := env.Announcements.Create(ctx, adm, announcement.Input{
		Title: "Holiday", Description: "Closed", DisplayStartDate: timePtr(now.Add(-time.Hour)),
	})
	require.NoError(t, err)

	a, err = env.Announcements.Update(ctx, adm, a.ID, announcement.Input{
		Title: "Holiday", Description: "Closed on Friday", IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.Equal(t, "Closed on Friday", a.Description)
	// an omitted start date is kept
	assert.True(t, a.DisplayStartDate.Before(now))

	list, err := env.Announcements.ListActive(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.Announcements.Update(ctx, adm, "missing", announcement.Input{Title: "t", Description: "d"})
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, env.Announcements.Delete(ctx, adm, a.ID))
	assert.Equal(t, announcement.ErrNotFound, env.Announcements.Delete(ctx, adm, a.ID))
}
