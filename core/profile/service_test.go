package profile_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/user"
	testutil "github.com/etarip26/EduConnect/tests"
)

func TestService_UpsertStudent(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	student := env.CreateUser(t, user.RoleStudent, "Rahim")
	teacher := env.CreateUser(t, user.RoleTeacher, "Karim")

	_, err := env.Profiles.UpsertStudent(ctx, teacher, profile.StudentInput{ClassLevel: "HSC"})
	assert.Equal(t, profile.ErrNotStudent, err)
	_, err = env.Profiles.UpsertStudent(ctx, student, profile.StudentInput{ClassLevel: "  "})
	assert.Error(t, err)

	p, err := env.Profiles.UpsertStudent(ctx, student, profile.StudentInput{
		ClassLevel: " HSC ",
		Location:   core.Location{City: " Dhaka "},
	})
	require.NoError(t, err)
	assert.Equal(t, "HSC", p.ClassLevel)
	assert.Equal(t, "Dhaka", p.Location.City)
	assert.False(t, p.IsVerified)

	_, err = env.Profiles.SetStudentVerified(ctx, student.ID, true)
	require.NoError(t, err)
	_, err = env.Profiles.SetParentControl(ctx, student.ID, true)
	require.NoError(t, err)

	// admin flags survive an owner update
	updated, err := env.Profiles.UpsertStudent(ctx, student, profile.StudentInput{ClassLevel: "Class 10"})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, "Class 10", updated.ClassLevel)
	assert.True(t, updated.IsVerified)
	assert.True(t, updated.ParentControlEnabled)

	mine, err := env.Profiles.GetMine(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, mine.Student)
	assert.Nil(t, mine.Teacher)
	assert.Equal(t, "Class 10", mine.Student.ClassLevel)
}

func TestService_UpsertTeacher(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	student := env.CreateUser(t, user.RoleStudent, "Rahim")
	teacher := env.CreateUser(t, user.RoleTeacher, "Karim")

	in := profile.TeacherInput{
		University:        " DU ",
		Subjects:          []string{" Chemistry ", "Biology"},
		ExpectedSalaryMin: 3000,
		ExpectedSalaryMax: 5000,
	}
	_, err := env.Profiles.UpsertTeacher(ctx, student, in)
	assert.Equal(t, profile.ErrNotTeacher, err)

	tests := []struct {
		name string
		fn   func(in *profile.TeacherInput)
	}{
		{name: "salary range", fn: func(in *profile.TeacherInput) { in.ExpectedSalaryMax = 1000 }},
		{name: "negative salary", fn: func(in *profile.TeacherInput) { in.ExpectedSalaryMin = -1; in.ExpectedSalaryMax = 0 }},
		{name: "blank subject", fn: func(in *profile.TeacherInput) { in.Subjects = []string{"Math", " "} }},
		{name: "bad nid url", fn: func(in *profile.TeacherInput) { in.NIDCardImageURL = "nid.png" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := in
			bad.Subjects = append([]string(nil), in.Subjects...)
			tt.fn(&bad)
			_, err := env.Profiles.UpsertTeacher(ctx, teacher, bad)
			assert.Error(t, err)
		})
	}

	p, err := env.Profiles.UpsertTeacher(ctx, teacher, in)
	require.NoError(t, err)
	assert.Equal(t, "DU", p.University)
	assert.Equal(t, []string{"Chemistry", "Biology"}, p.Subjects)

	_, err = env.Profiles.SetTeacherVerified(ctx, teacher.ID, true)
	require.NoError(t, err)
	_, err = env.Profiles.SetNIDVerified(ctx, teacher.ID, true)
	require.NoError(t, err)
	require.NoError(t, env.Profiles.UpdateRating(ctx, teacher.ID, 4.5, 2))

	in.About = "Ten years of teaching"
	updated, err := env.Profiles.UpsertTeacher(ctx, teacher, in)
	require.NoError(t, err)
	assert.Equal(t, "Ten years of teaching", updated.About)
	assert.True(t, updated.IsVerified)
	assert.True(t, updated.IsNIDVerified)
	assert.Equal(t, 4.5, updated.RatingAverage)
	assert.Equal(t, 2, updated.RatingCount)

	_, err = env.Profiles.SetTeacherVerified(ctx, student.ID, true)
	assert.True(t, core.IsNotFound(err))
}

func TestService_IsApproved(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	noProfile := env.CreateUser(t, user.RoleStudent, "Rahim")
	unverified := env.CreateUser(t, user.RoleTeacher, "Karim")
	_, err := env.Profiles.UpsertTeacher(ctx, unverified, profile.TeacherInput{})
	require.NoError(t, err)

	tests := []struct {
		name string
		usr  user.User
		want bool
	}{
		{name: "admin", usr: env.CreateAdmin(t), want: true},
		{name: "verified student", usr: env.CreateStudent(t, "Salma"), want: true},
		{name: "verified teacher", usr: env.CreateTeacher(t, "Nadia"), want: true},
		{name: "no profile", usr: noProfile},
		{name: "unverified", usr: unverified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := env.Profiles.IsApproved(ctx, tt.usr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			err = env.Profiles.RequireApproved(ctx, tt.usr)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, core.ErrProfileNotApproved, err)
			}
		})
	}
}

func TestService_ParentControlEnabled(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	enabled, err := env.Profiles.ParentControlEnabled(ctx, "no-profile")
	require.NoError(t, err)
	assert.False(t, enabled)

	student := env.CreateStudent(t, "Rahim")
	enabled, err = env.Profiles.ParentControlEnabled(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = env.Profiles.SetParentControl(ctx, student.ID, true)
	require.NoError(t, err)
	enabled, err = env.Profiles.ParentControlEnabled(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestService_SearchTeachers(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	low := env.CreateTeacher(t, "Low")
	high := env.CreateTeacher(t, "High")
	require.NoError(t, env.Profiles.UpdateRating(ctx, low.ID, 3, 4))
	require.NoError(t, env.Profiles.UpdateRating(ctx, high.ID, 4.8, 10))

	chittagong := env.CreateUser(t, user.RoleTeacher, "Far")
	_, err := env.Profiles.UpsertTeacher(ctx, chittagong, profile.TeacherInput{
		Subjects: []string{"English"},
		Location: core.Location{City: "Chittagong", Lat: core.Float64(22.3569), Lng: core.Float64(91.7832)},
	})
	require.NoError(t, err)
	_, err = env.Profiles.SetTeacherVerified(ctx, chittagong.ID, true)
	require.NoError(t, err)

	hidden := env.CreateUser(t, user.RoleTeacher, "Hidden")
	_, err = env.Profiles.UpsertTeacher(ctx, hidden, profile.TeacherInput{Subjects: []string{"Math"}})
	require.NoError(t, err)

	ids := func(list []profile.TeacherProfile) []string {
		out := make([]string, 0, len(list))
		for _, p := range list {
			out = append(out, p.UserID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter profile.TeacherFilter
		want   []string
	}{
		{name: "all verified by rating", want: []string{high.ID, low.ID, chittagong.ID}},
		{name: "subject", filter: profile.TeacherFilter{Subject: " math "}, want: []string{high.ID, low.ID}},
		{name: "min rating", filter: profile.TeacherFilter{MinRating: 4}, want: []string{high.ID}},
		{name: "salary overlap", filter: profile.TeacherFilter{MinSalary: 9000}, want: []string{chittagong.ID}},
		{name: "near dhaka", filter: profile.TeacherFilter{Near: &core.Near{Lat: 23.81, Lng: 90.41, RadiusKm: 10}}, want: []string{high.ID, low.ID}},
		{name: "unverified ignored", filter: profile.TeacherFilter{Verified: new(bool)}, want: []string{high.ID, low.ID, chittagong.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := env.Profiles.SearchTeachers(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}

	// the admin query sees unverified profiles
	list, err := env.Profiles.QueryTeachers(ctx, profile.TeacherFilter{Verified: new(bool)})
	require.NoError(t, err)
	assert.Equal(t, []string{hidden.ID}, ids(list))
}

func TestService_TopTeachers(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		teacher := env.CreateTeacher(t, fmt.Sprintf("Teacher %d", i))
		require.NoError(t, env.Profiles.UpdateRating(ctx, teacher.ID, float64(i%5), i))
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 5},
		{limit: 3, want: 3},
		{limit: 100, want: 7},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			list, err := env.Profiles.TopTeachers(ctx, tt.limit)
			require.NoError(t, err)
			require.Len(t, list, tt.want)
			for i := 1; i < len(list); i++ {
				assert.GreaterOrEqual(t, list[i-1].RatingAverage, list[i].RatingAverage)
			}
		})
	}
}
