package review

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrOnlyStudents    = core.NewAuthorizationError("only students can review")
	ErrTeacherNotFound = core.NewNotFoundError("teacher not found")
	ErrWrongMatch      = core.NewAuthorizationError("you are not allowed to review this teacher for this match")
)

type (
	Repository interface {
		// UpsertReview keeps a single review per (teacher, student): a second one replaces the first.
		UpsertReview(ctx context.Context, r Review) (Review, error)
		// ListReviewsByTeacher returns the teacher's reviews, newest first.
		ListReviewsByTeacher(ctx context.Context, teacherID string) ([]Review, error)
		// TeacherRating returns the average rating of the teacher and the number of reviews.
		TeacherRating(ctx context.Context, teacherID string) (float64, int, error)
	}

	Matches interface {
		Find(ctx context.Context, id string) (match.Match, error)
	}

	Ratings interface {
		UpdateRating(ctx context.Context, teacherID string, avg float64, count int) error
	}

	Directory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		matches  Matches
		ratings  Ratings
		users    Directory
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	matches Matches,
	ratings Ratings,
	users Directory,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		matches:  matches,
		ratings:  ratings,
		users:    users,
		validate: validate,
		logger:   logger,
	}
}

// Create records the student's review of a teacher and refreshes the teacher's rating.
func (svc *Service) Create(ctx context.Context, student user.User, teacherID string, nr NewReview) (Review, error) {
	if !student.IsStudent() {
		return Review{}, ErrOnlyStudents
	}
	if err := nr.Validate(svc.validate); err != nil {
		return Review{}, err
	}
	teacher, err := svc.users.GetByID(ctx, teacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return Review{}, ErrTeacherNotFound
		}
		return Review{}, errors.Wrap(err, "finding teacher")
	}
	if !teacher.IsTeacher() {
		return Review{}, ErrTeacherNotFound
	}
	if nr.MatchID != "" {
		m, err := svc.matches.Find(ctx, nr.MatchID)
		if err != nil {
			return Review{}, err
		}
		if m.StudentID != student.ID || m.TeacherID != teacher.ID {
			return Review{}, ErrWrongMatch
		}
	}

	now := time.Now().UTC()
	r, err := svc.repo.UpsertReview(ctx, Review{
		ID:        uuid.NewString(),
		TeacherID: teacher.ID,
		StudentID: student.ID,
		MatchID:   nr.MatchID,
		Rating:    nr.Rating,
		Comment:   nr.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Review{}, errors.Wrap(err, "saving review")
	}
	if err = svc.recompute(ctx, teacher.ID); err != nil {
		svc.logger.Error(err.Error(), map[string]interface{}{"teacher_id": teacher.ID})
	}
	return r, nil
}

func (svc *Service) recompute(ctx context.Context, teacherID string) error {
	avg, count, err := svc.repo.TeacherRating(ctx, teacherID)
	if err != nil {
		return errors.Wrap(err, "computing teacher rating")
	}
	if err = svc.ratings.UpdateRating(ctx, teacherID, avg, count); err != nil && !core.IsNotFound(err) {
		return errors.Wrap(err, "storing teacher rating")
	}
	return nil
}

// ListForTeacher returns the teacher's reviews with their authors.
func (svc *Service) ListForTeacher(ctx context.Context, teacherID string) ([]WithStudent, error) {
	reviews, err := svc.repo.ListReviewsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	out := make([]WithStudent, 0, len(reviews))
	for _, r := range reviews {
		ws := WithStudent{Review: r}
		if student, err := svc.users.GetByID(ctx, r.StudentID); err == nil {
			pub := student.Public()
			ws.Student = &pub
		}
		out = append(out, ws)
	}
	return out, nil
}
