package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/etarip26/EduConnect/core"
)

const (
	defaultTopTeachers = 5
	maxTopTeachers     = 20
)

type StudentProfile struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"user_id"`
	ClassLevel           string        `json:"class_level"`
	Location             core.Location `json:"location"`
	IsVerified           bool          `json:"is_verified"`
	ParentControlEnabled bool          `json:"parent_control_enabled"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

type Availability struct {
	Days      []string `json:"days"`
	TimeRange string   `json:"time_range"`
}

type TeacherProfile struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	University        string        `json:"university"`
	Department        string        `json:"department"`
	Subjects          []string      `json:"subjects"`
	ClassLevels       []string      `json:"class_levels"`
	JobTitle          string        `json:"job_title"`
	ExpectedSalaryMin int           `json:"expected_salary_min"`
	ExpectedSalaryMax int           `json:"expected_salary_max"`
	Location          core.Location `json:"location"`
	Availability      Availability  `json:"availability"`
	About             string        `json:"about"`
	NIDCardImageURL   string        `json:"nid_card_image_url"`
	IsNIDVerified     bool          `json:"is_nid_verified"`
	IsVerified        bool          `json:"is_verified"`
	RatingAverage     float64       `json:"rating_average"`
	RatingCount       int           `json:"rating_count"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Mine is the role-dispatched profile of the caller; exactly one side is set.
type Mine struct {
	Role    string          `json:"role"`
	Student *StudentProfile `json:"student_profile,omitempty"`
	Teacher *TeacherProfile `json:"teacher_profile,omitempty"`
}

// StudentInput defines what a student may set on their profile.
type StudentInput struct {
	ClassLevel string        `json:"class_level" validate:"required"`
	Location   core.Location `json:"location"`
}

func (in *StudentInput) Validate(validate *validator.Validate) error {
	in.ClassLevel = core.CleanString(in.ClassLevel)
	in.Location.City = core.CleanString(in.Location.City)
	in.Location.Area = core.CleanString(in.Location.Area)
	return validate.Struct(in)
}

// TeacherInput defines what a teacher may set on their profile. Verification flags are admin-only.
type TeacherInput struct {
	University        string        `json:"university"`
	Department        string        `json:"department"`
	Subjects          []string      `json:"subjects" validate:"dive,notblank"`
	ClassLevels       []string      `json:"class_levels" validate:"dive,notblank"`
	JobTitle          string        `json:"job_title"`
	ExpectedSalaryMin int           `json:"expected_salary_min" validate:"gte=0"`
	ExpectedSalaryMax int           `json:"expected_salary_max" validate:"omitempty,gtefield=ExpectedSalaryMin"`
	Location          core.Location `json:"location"`
	Availability      Availability  `json:"availability"`
	About             string        `json:"about" validate:"max=2000"`
	NIDCardImageURL   string        `json:"nid_card_image_url" validate:"omitempty,url"`
}

func (in *TeacherInput) Validate(validate *validator.Validate) error {
	in.University = core.CleanString(in.University)
	in.Department = core.CleanString(in.Department)
	in.JobTitle = core.CleanString(in.JobTitle)
	in.About = core.CleanString(in.About)
	in.NIDCardImageURL = core.CleanString(in.NIDCardImageURL)
	in.Location.City = core.CleanString(in.Location.City)
	in.Location.Area = core.CleanString(in.Location.Area)
	if err := validate.Struct(in); err != nil {
		return err
	}
	in.Subjects = core.CleanStrings(in.Subjects)
	in.ClassLevels = core.CleanStrings(in.ClassLevels)
	in.Availability.Days = core.CleanStrings(in.Availability.Days)
	return nil
}

// TeacherFilter applies AND operation on its set fields.
type TeacherFilter struct {
	Subject    string     `query:"subject"`
	ClassLevel string     `query:"class_level"`
	MinSalary  int        `query:"min_salary"`
	MaxSalary  int        `query:"max_salary"`
	University string     `query:"university"`
	Department string     `query:"department"`
	JobTitle   string     `query:"job_title"`
	MinRating  float64    `query:"min_rating"`
	MaxRating  float64    `query:"max_rating"`
	Verified   *bool      `query:"verified"`
	Near       *core.Near `query:"-"`
	Limit      int        `query:"-"`
	// ByRating sorts by rating average then count (both descending) instead of newest first.
	ByRating bool `query:"-"`
}

func (f *TeacherFilter) Clean() {
	f.Subject = core.CleanString(f.Subject)
	f.ClassLevel = core.CleanString(f.ClassLevel)
	f.University = core.CleanString(f.University)
	f.Department = core.CleanString(f.Department)
	f.JobTitle = core.CleanString(f.JobTitle)
}

// Match reports whether `p` satisfies the filter; Limit and ordering are applied by the caller.
func (f TeacherFilter) Match(p TeacherProfile) bool {
	if f.Verified != nil && p.IsVerified != *f.Verified {
		return false
	}
	if f.Subject != "" && !core.ContainsString(p.Subjects, f.Subject) {
		return false
	}
	if f.ClassLevel != "" && !core.ContainsString(p.ClassLevels, f.ClassLevel) {
		return false
	}
	// salary ranges overlap
	if f.MinSalary > 0 && p.ExpectedSalaryMax > 0 && p.ExpectedSalaryMax < f.MinSalary {
		return false
	}
	if f.MaxSalary > 0 && p.ExpectedSalaryMin > f.MaxSalary {
		return false
	}
	if f.University != "" && !core.ContainsFold(p.University, f.University) {
		return false
	}
	if f.Department != "" && !core.ContainsFold(p.Department, f.Department) {
		return false
	}
	if f.JobTitle != "" && !core.ContainsFold(p.JobTitle, f.JobTitle) {
		return false
	}
	if f.MinRating > 0 && p.RatingAverage < f.MinRating {
		return false
	}
	if f.MaxRating > 0 && p.RatingAverage > f.MaxRating {
		return false
	}
	if f.Near != nil && !f.Near.Contains(p.Location) {
		return false
	}
	return true
}
