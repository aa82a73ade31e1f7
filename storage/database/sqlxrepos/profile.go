package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/profile"
)

type studentProfileRow struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	locationCols
	ClassLevel           string    `db:"class_level"`
	IsVerified           bool      `db:"is_verified"`
	ParentControlEnabled bool      `db:"parent_control_enabled"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func newStudentProfileRow(p profile.StudentProfile) studentProfileRow {
	return studentProfileRow{
		ID:                   p.ID,
		UserID:               p.UserID,
		locationCols:         fromLocation(p.Location),
		ClassLevel:           p.ClassLevel,
		IsVerified:           p.IsVerified,
		ParentControlEnabled: p.ParentControlEnabled,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (row studentProfileRow) profile() profile.StudentProfile {
	return profile.StudentProfile{
		ID:                   row.ID,
		UserID:               row.UserID,
		ClassLevel:           row.ClassLevel,
		Location:             row.location(),
		IsVerified:           row.IsVerified,
		ParentControlEnabled: row.ParentControlEnabled,
		CreatedAt:            row.CreatedAt.UTC(),
		UpdatedAt:            row.UpdatedAt.UTC(),
	}
}

type teacherProfileRow struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
	locationCols
	University        string         `db:"university"`
	Department        string         `db:"department"`
	Subjects          pq.StringArray `db:"subjects"`
	ClassLevels       pq.StringArray `db:"class_levels"`
	JobTitle          string         `db:"job_title"`
	ExpectedSalaryMin int            `db:"expected_salary_min"`
	ExpectedSalaryMax int            `db:"expected_salary_max"`
	AvailabilityDays  pq.StringArray `db:"availability_days"`
	AvailabilityTime  string         `db:"availability_time"`
	About             string         `db:"about"`
	NIDCardImageURL   string         `db:"nid_card_image_url"`
	IsNIDVerified     bool           `db:"is_nid_verified"`
	IsVerified        bool           `db:"is_verified"`
	RatingAverage     float64        `db:"rating_average"`
	RatingCount       int            `db:"rating_count"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func newTeacherProfileRow(p profile.TeacherProfile) teacherProfileRow {
	return teacherProfileRow{
		ID:                p.ID,
		UserID:            p.UserID,
		locationCols:      fromLocation(p.Location),
		University:        p.University,
		Department:        p.Department,
		Subjects:          stringArray(p.Subjects),
		ClassLevels:       stringArray(p.ClassLevels),
		JobTitle:          p.JobTitle,
		ExpectedSalaryMin: p.ExpectedSalaryMin,
		ExpectedSalaryMax: p.ExpectedSalaryMax,
		AvailabilityDays:  stringArray(p.Availability.Days),
		AvailabilityTime:  p.Availability.TimeRange,
		About:             p.About,
		NIDCardImageURL:   p.NIDCardImageURL,
		IsNIDVerified:     p.IsNIDVerified,
		IsVerified:        p.IsVerified,
		RatingAverage:     p.RatingAverage,
		RatingCount:       p.RatingCount,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (row teacherProfileRow) profile() profile.TeacherProfile {
	return profile.TeacherProfile{
		ID:                row.ID,
		UserID:            row.UserID,
		University:        row.University,
		Department:        row.Department,
		Subjects:          []string(row.Subjects),
		ClassLevels:       []string(row.ClassLevels),
		JobTitle:          row.JobTitle,
		ExpectedSalaryMin: row.ExpectedSalaryMin,
		ExpectedSalaryMax: row.ExpectedSalaryMax,
		Location:          row.location(),
		Availability:      profile.Availability{Days: []string(row.AvailabilityDays), TimeRange: row.AvailabilityTime},
		About:             row.About,
		NIDCardImageURL:   row.NIDCardImageURL,
		IsNIDVerified:     row.IsNIDVerified,
		IsVerified:        row.IsVerified,
		RatingAverage:     row.RatingAverage,
		RatingCount:       row.RatingCount,
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}

type profileRepository struct {
	db core.DB
}

func NewProfileRepository(db core.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) UpsertStudentProfile(ctx context.Context, p profile.StudentProfile) (profile.StudentProfile, error) {
	const q = `
		INSERT INTO student_profiles (id, user_id, class_level, lat, lng, city, area, created_at, updated_at)
		VALUES (:id, :user_id, :class_level, :lat, :lng, :city, :area, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			class_level = EXCLUDED.class_level, lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			city = EXCLUDED.city, area = EXCLUDED.area, updated_at = EXCLUDED.updated_at
		RETURNING *`
	var row studentProfileRow
	if err := namedGet(ctx, repo.db, &row, q, newStudentProfileRow(p)); err != nil {
		return profile.StudentProfile{}, err
	}
	return row.profile(), nil
}

func (repo *profileRepository) UpsertTeacherProfile(ctx context.Context, p profile.TeacherProfile) (profile.TeacherProfile, error) {
	const q = `
		INSERT INTO teacher_profiles (
			id, user_id, university, department, subjects, class_levels, job_title, expected_salary_min,
			expected_salary_max, lat, lng, city, area, availability_days, availability_time, about,
			nid_card_image_url, created_at, updated_at
		) VALUES (
			:id, :user_id, :university, :department, :subjects, :class_levels, :job_title, :expected_salary_min,
			:expected_salary_max, :lat, :lng, :city, :area, :availability_days, :availability_time, :about,
			:nid_card_image_url, :created_at, :updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			university = EXCLUDED.university, department = EXCLUDED.department, subjects = EXCLUDED.subjects,
			class_levels = EXCLUDED.class_levels, job_title = EXCLUDED.job_title,
			expected_salary_min = EXCLUDED.expected_salary_min, expected_salary_max = EXCLUDED.expected_salary_max,
			lat = EXCLUDED.lat, lng = EXCLUDED.lng, city = EXCLUDED.city, area = EXCLUDED.area,
			availability_days = EXCLUDED.availability_days, availability_time = EXCLUDED.availability_time,
			about = EXCLUDED.about, nid_card_image_url = EXCLUDED.nid_card_image_url, updated_at = EXCLUDED.updated_at
		RETURNING *`
	var row teacherProfileRow
	if err := namedGet(ctx, repo.db, &row, q, newTeacherProfileRow(p)); err != nil {
		return profile.TeacherProfile{}, err
	}
	return row.profile(), nil
}

func (repo *profileRepository) GetStudentProfile(ctx context.Context, userID string) (profile.StudentProfile, error) {
	var row studentProfileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student_profiles WHERE user_id = $1`, userID); err != nil {
		return profile.StudentProfile{}, notFound(err, profile.ErrStudentProfileNotFound)
	}
	return row.profile(), nil
}

func (repo *profileRepository) GetTeacherProfile(ctx context.Context, userID string) (profile.TeacherProfile, error) {
	var row teacherProfileRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM teacher_profiles WHERE user_id = $1`, userID); err != nil {
		return profile.TeacherProfile{}, notFound(err, profile.ErrTeacherProfileNotFound)
	}
	return row.profile(), nil
}

func (repo *profileRepository) QueryStudentProfiles(ctx context.Context, verified *bool) ([]profile.StudentProfile, error) {
	var w where
	if verified != nil {
		w.add("is_verified = ?", *verified)
	}
	var rows []studentProfileRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM student_profiles`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying student profiles")
	}
	list := make([]profile.StudentProfile, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.profile())
	}
	return list, nil
}

// QueryTeacherProfiles filters in SQL; the radius filter and the limit that follows it run in Go.
func (repo *profileRepository) QueryTeacherProfiles(ctx context.Context, filter profile.TeacherFilter) ([]profile.TeacherProfile, error) {
	var w where
	if filter.Verified != nil {
		w.add("is_verified = ?", *filter.Verified)
	}
	if filter.Subject != "" {
		w.add("EXISTS (SELECT 1 FROM unnest(subjects) s WHERE lower(s) = lower(?))", filter.Subject)
	}
	if filter.ClassLevel != "" {
		w.add("EXISTS (SELECT 1 FROM unnest(class_levels) c WHERE lower(c) = lower(?))", filter.ClassLevel)
	}
	if filter.MinSalary > 0 {
		w.add("(expected_salary_max = 0 OR expected_salary_max >= ?)", filter.MinSalary)
	}
	if filter.MaxSalary > 0 {
		w.add("expected_salary_min <= ?", filter.MaxSalary)
	}
	if filter.University != "" {
		w.add("university ILIKE ?", "%"+filter.University+"%")
	}
	if filter.Department != "" {
		w.add("department ILIKE ?", "%"+filter.Department+"%")
	}
	if filter.JobTitle != "" {
		w.add("job_title ILIKE ?", "%"+filter.JobTitle+"%")
	}
	if filter.MinRating > 0 {
		w.add("rating_average >= ?", filter.MinRating)
	}
	if filter.MaxRating > 0 {
		w.add("rating_average <= ?", filter.MaxRating)
	}

	order := "ORDER BY created_at DESC"
	if filter.ByRating {
		order = "ORDER BY rating_average DESC, rating_count DESC, created_at DESC"
	}
	if filter.Limit > 0 && filter.Near == nil {
		order += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var rows []teacherProfileRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM teacher_profiles`, w, order); err != nil {
		return nil, errors.Wrap(err, "querying teacher profiles")
	}
	list := make([]profile.TeacherProfile, 0, len(rows))
	for _, row := range rows {
		p := row.profile()
		if filter.Near != nil && !filter.Near.Contains(p.Location) {
			continue
		}
		list = append(list, p)
		if filter.Limit > 0 && len(list) == filter.Limit {
			break
		}
	}
	return list, nil
}

func (repo *profileRepository) UpdateStudentFlags(ctx context.Context, p profile.StudentProfile) (profile.StudentProfile, error) {
	const q = `
		UPDATE student_profiles SET
			is_verified = :is_verified, parent_control_enabled = :parent_control_enabled, updated_at = :updated_at
		WHERE user_id = :user_id
		RETURNING *`
	var row studentProfileRow
	if err := namedGet(ctx, repo.db, &row, q, newStudentProfileRow(p)); err != nil {
		return profile.StudentProfile{}, notFound(err, profile.ErrStudentProfileNotFound)
	}
	return row.profile(), nil
}

func (repo *profileRepository) UpdateTeacherFlags(ctx context.Context, p profile.TeacherProfile) (profile.TeacherProfile, error) {
	const q = `
		UPDATE teacher_profiles SET
			is_verified = :is_verified, is_nid_verified = :is_nid_verified, rating_average = :rating_average,
			rating_count = :rating_count, updated_at = :updated_at
		WHERE user_id = :user_id
		RETURNING *`
	var row teacherProfileRow
	if err := namedGet(ctx, repo.db, &row, q, newTeacherProfileRow(p)); err != nil {
		return profile.TeacherProfile{}, notFound(err, profile.ErrTeacherProfileNotFound)
	}
	return row.profile(), nil
}
