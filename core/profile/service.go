package profile

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrStudentProfileNotFound = core.NewNotFoundError("student profile not found")
	ErrTeacherProfileNotFound = core.NewNotFoundError("teacher profile not found")
	ErrNotStudent             = core.NewAuthorizationError("only students have a student profile")
	ErrNotTeacher             = core.NewAuthorizationError("only teachers have a teacher profile")
)

type (
	Repository interface {
		// UpsertStudentProfile inserts the profile or updates the owner-editable fields of the existing one.
		// Verification and parent control flags are never overwritten by an upsert.
		UpsertStudentProfile(ctx context.Context, p StudentProfile) (StudentProfile, error)
		UpsertTeacherProfile(ctx context.Context, p TeacherProfile) (TeacherProfile, error)
		GetStudentProfile(ctx context.Context, userID string) (StudentProfile, error)
		GetTeacherProfile(ctx context.Context, userID string) (TeacherProfile, error)
		QueryStudentProfiles(ctx context.Context, verified *bool) ([]StudentProfile, error)
		QueryTeacherProfiles(ctx context.Context, filter TeacherFilter) ([]TeacherProfile, error)
		// UpdateStudentFlags and UpdateTeacherFlags persist the admin-controlled fields.
		UpdateStudentFlags(ctx context.Context, p StudentProfile) (StudentProfile, error)
		UpdateTeacherFlags(ctx context.Context, p TeacherProfile) (TeacherProfile, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) UpsertStudent(ctx context.Context, usr user.User, in StudentInput) (StudentProfile, error) {
	if !usr.IsStudent() {
		return StudentProfile{}, ErrNotStudent
	}
	if err := in.Validate(svc.validate); err != nil {
		return StudentProfile{}, err
	}
	now := time.Now().UTC()
	p := StudentProfile{
		ID:         uuid.NewString(),
		UserID:     usr.ID,
		ClassLevel: in.ClassLevel,
		Location:   in.Location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p, err := svc.repo.UpsertStudentProfile(ctx, p)
	return p, errors.Wrap(err, "upserting student profile")
}

func (svc *Service) UpsertTeacher(ctx context.Context, usr user.User, in TeacherInput) (TeacherProfile, error) {
	if !usr.IsTeacher() {
		return TeacherProfile{}, ErrNotTeacher
	}
	if err := in.Validate(svc.validate); err != nil {
		return TeacherProfile{}, err
	}
	now := time.Now().UTC()
	p := TeacherProfile{
		ID:                uuid.NewString(),
		UserID:            usr.ID,
		University:        in.University,
		Department:        in.Department,
		Subjects:          in.Subjects,
		ClassLevels:       in.ClassLevels,
		JobTitle:          in.JobTitle,
		ExpectedSalaryMin: in.ExpectedSalaryMin,
		ExpectedSalaryMax: in.ExpectedSalaryMax,
		Location:          in.Location,
		Availability:      in.Availability,
		About:             in.About,
		NIDCardImageURL:   in.NIDCardImageURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	p, err := svc.repo.UpsertTeacherProfile(ctx, p)
	return p, errors.Wrap(err, "upserting teacher profile")
}

// GetMine returns the caller's role profile. Admins have none.
func (svc *Service) GetMine(ctx context.Context, usr user.User) (Mine, error) {
	mine := Mine{Role: usr.Role}
	switch {
	case usr.IsStudent():
		p, err := svc.repo.GetStudentProfile(ctx, usr.ID)
		if err != nil {
			return Mine{}, err
		}
		mine.Student = &p
	case usr.IsTeacher():
		p, err := svc.repo.GetTeacherProfile(ctx, usr.ID)
		if err != nil {
			return Mine{}, err
		}
		mine.Teacher = &p
	}
	return mine, nil
}

func (svc *Service) GetStudent(ctx context.Context, userID string) (StudentProfile, error) {
	return svc.repo.GetStudentProfile(ctx, userID)
}

func (svc *Service) GetTeacher(ctx context.Context, userID string) (TeacherProfile, error) {
	return svc.repo.GetTeacherProfile(ctx, userID)
}

// IsApproved reports whether the account's role profile exists and was verified by an admin.
func (svc *Service) IsApproved(ctx context.Context, usr user.User) (bool, error) {
	var err error
	switch {
	case usr.IsAdmin():
		return true, nil
	case usr.IsStudent():
		var p StudentProfile
		if p, err = svc.repo.GetStudentProfile(ctx, usr.ID); err == nil {
			return p.IsVerified, nil
		}
	case usr.IsTeacher():
		var p TeacherProfile
		if p, err = svc.repo.GetTeacherProfile(ctx, usr.ID); err == nil {
			return p.IsVerified, nil
		}
	default:
		return false, nil
	}
	if core.IsNotFound(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "finding profile")
}

// RequireApproved fails with core.ErrProfileNotApproved unless IsApproved.
func (svc *Service) RequireApproved(ctx context.Context, usr user.User) error {
	ok, err := svc.IsApproved(ctx, usr)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrProfileNotApproved
	}
	return nil
}

// ParentControlEnabled reports whether the student's chat and demo actions are blocked.
// Students without a profile are not blocked.
func (svc *Service) ParentControlEnabled(ctx context.Context, studentID string) (bool, error) {
	p, err := svc.repo.GetStudentProfile(ctx, studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "finding student profile")
	}
	return p.ParentControlEnabled, nil
}

// TopTeachers returns verified teachers by rating; limit defaults to 5 and is capped at 20.
func (svc *Service) TopTeachers(ctx context.Context, limit int) ([]TeacherProfile, error) {
	if limit <= 0 {
		limit = defaultTopTeachers
	}
	if limit > maxTopTeachers {
		limit = maxTopTeachers
	}
	verified := true
	return svc.repo.QueryTeacherProfiles(ctx, TeacherFilter{Verified: &verified, ByRating: true, Limit: limit})
}

// SearchTeachers only ever returns verified teachers.
func (svc *Service) SearchTeachers(ctx context.Context, filter TeacherFilter) ([]TeacherProfile, error) {
	filter.Clean()
	verified := true
	filter.Verified = &verified
	filter.ByRating = true
	return svc.repo.QueryTeacherProfiles(ctx, filter)
}

func (svc *Service) QueryStudents(ctx context.Context, verified *bool) ([]StudentProfile, error) {
	return svc.repo.QueryStudentProfiles(ctx, verified)
}

func (svc *Service) QueryTeachers(ctx context.Context, filter TeacherFilter) ([]TeacherProfile, error) {
	filter.Clean()
	return svc.repo.QueryTeacherProfiles(ctx, filter)
}

func (svc *Service) SetStudentVerified(ctx context.Context, userID string, verified bool) (StudentProfile, error) {
	return svc.updateStudent(ctx, userID, func(p *StudentProfile) { p.IsVerified = verified })
}

func (svc *Service) SetParentControl(ctx context.Context, userID string, enabled bool) (StudentProfile, error) {
	return svc.updateStudent(ctx, userID, func(p *StudentProfile) { p.ParentControlEnabled = enabled })
}

func (svc *Service) SetTeacherVerified(ctx context.Context, userID string, verified bool) (TeacherProfile, error) {
	return svc.updateTeacher(ctx, userID, func(p *TeacherProfile) { p.IsVerified = verified })
}

func (svc *Service) SetNIDVerified(ctx context.Context, userID string, verified bool) (TeacherProfile, error) {
	return svc.updateTeacher(ctx, userID, func(p *TeacherProfile) { p.IsNIDVerified = verified })
}

// UpdateRating stores the recomputed rating aggregate of a teacher.
func (svc *Service) UpdateRating(ctx context.Context, teacherID string, avg float64, count int) error {
	_, err := svc.updateTeacher(ctx, teacherID, func(p *TeacherProfile) {
		p.RatingAverage = avg
		p.RatingCount = count
	})
	return err
}

func (svc *Service) updateStudent(ctx context.Context, userID string, fn func(*StudentProfile)) (StudentProfile, error) {
	p, err := svc.repo.GetStudentProfile(ctx, userID)
	if err != nil {
		return StudentProfile{}, err
	}
	fn(&p)
	p.UpdatedAt = time.Now().UTC()
	p, err = svc.repo.UpdateStudentFlags(ctx, p)
	return p, errors.Wrap(err, "updating student profile")
}

func (svc *Service) updateTeacher(ctx context.Context, userID string, fn func(*TeacherProfile)) (TeacherProfile, error) {
	p, err := svc.repo.GetTeacherProfile(ctx, userID)
	if err != nil {
		return TeacherProfile{}, err
	}
	fn(&p)
	p.UpdatedAt = time.Now().UTC()
	p, err = svc.repo.UpdateTeacherFlags(ctx, p)
	return p, errors.Wrap(err, "updating teacher profile")
}
