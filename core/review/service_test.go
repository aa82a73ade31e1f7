package review_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/review"
	"github.com/etarip26/EduConnect/core/user"
	testutil "github.com/etarip26/EduConnect/tests"
)

func TestService_Create_errors(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	student := env.CreateStudent(t, "Rahim")
	other := env.CreateStudent(t, "Salma")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, other, teacher, adm)

	tests := []struct {
		name      string
		author    user.User
		teacherID string
		nr        review.NewReview
		wantErr   error
		checkFn   func(err error) bool
	}{
		{name: "teacher author", author: teacher, teacherID: teacher.ID, nr: review.NewReview{Rating: 5}, wantErr: review.ErrOnlyStudents},
		{name: "admin author", author: adm, teacherID: teacher.ID, nr: review.NewReview{Rating: 5}, wantErr: review.ErrOnlyStudents},
		{name: "unknown teacher", author: student, teacherID: "ghost", nr: review.NewReview{Rating: 5}, wantErr: review.ErrTeacherNotFound},
		{name: "not a teacher", author: student, teacherID: other.ID, nr: review.NewReview{Rating: 5}, wantErr: review.ErrTeacherNotFound},
		{name: "someone else's match", author: student, teacherID: teacher.ID, nr: review.NewReview{Rating: 5, MatchID: m.ID}, wantErr: review.ErrWrongMatch},
		{name: "unknown match", author: student, teacherID: teacher.ID, nr: review.NewReview{Rating: 5, MatchID: "ghost"}, checkFn: core.IsNotFound},
		{name: "rating too low", author: student, teacherID: teacher.ID, nr: review.NewReview{Rating: 0}, checkFn: func(err error) bool { return err != nil }},
		{name: "rating too high", author: student, teacherID: teacher.ID, nr: review.NewReview{Rating: 6}, checkFn: func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Reviews.Create(ctx, tt.author, tt.teacherID, tt.nr)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
			}
		})
	}

	reviews, err := env.Reviews.ListForTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestService_Create_rating(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	adm := env.CreateAdmin(t)
	rahim := env.CreateStudent(t, "Rahim")
	salma := env.CreateStudent(t, "Salma")
	teacher := env.CreateTeacher(t, "Karim")
	m := env.CreateMatch(t, rahim, teacher, adm)

	_, err := env.Reviews.Create(ctx, rahim, teacher.ID, review.NewReview{Rating: 2, MatchID: m.ID})
	require.NoError(t, err)
	// a second review from the same student replaces the first
	r, err := env.Reviews.Create(ctx, rahim, teacher.ID, review.NewReview{Rating: 4, Comment: "  Patient  "})
	require.NoError(t, err)
	assert.Equal(t, "Patient", r.Comment)

	p, err := env.Profiles.GetTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.RatingAverage)
	assert.Equal(t, 1, p.RatingCount)

	_, err = env.Reviews.Create(ctx, salma, teacher.ID, review.NewReview{Rating: 5})
	require.NoError(t, err)

	p, err = env.Profiles.GetTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, p.RatingAverage, 0.001)
	assert.Equal(t, 2, p.RatingCount)

	reviews, err := env.Reviews.ListForTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	authors := make(map[string]int)
	for _, ws := range reviews {
		require.NotNil(t, ws.Student)
		authors[ws.Student.Name] = ws.Rating
	}
	assert.Equal(t, map[string]int{"Rahim": 4, "Salma": 5}, authors)
}

func TestService_Create_teacherWithoutProfile(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	student := env.CreateStudent(t, "Rahim")
	teacher := env.CreateUser(t, user.RoleTeacher, "Karim")

	// the rating has nowhere to be stored but the review is kept
	_, err := env.Reviews.Create(ctx, student, teacher.ID, review.NewReview{Rating: 3})
	require.NoError(t, err)
	reviews, err := env.Reviews.ListForTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}
