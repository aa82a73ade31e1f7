package tuition

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
)

// Post statuses
const (
	PostPending  = "pending_admin_review"
	PostApproved = "approved"
	PostRejected = "rejected"
)

// Application statuses
const (
	AppPending         = "pending_admin_review"
	AppAdminApproved   = "admin_approved"
	AppAdminRejected   = "admin_rejected"
	AppAccepted        = "accepted"
	AppStudentRejected = "student_rejected"
	AppRejected        = "rejected" // closed by the acceptance of a sibling
)

const (
	defaultRadiusKm = 10
	maxRadiusKm     = 50
	defaultPageSize = 50
	maxPageSize     = 200
)

type Post struct {
	ID              string        `json:"id"`
	StudentID       string        `json:"student_id"`
	Title           string        `json:"title"`
	Details         string        `json:"details"`
	ClassLevel      string        `json:"class_level"`
	Subjects        []string      `json:"subjects"`
	SalaryMin       int           `json:"salary_min"`
	SalaryMax       int           `json:"salary_max"`
	Location        core.Location `json:"location"`
	Status          string        `json:"status"`
	IsClosed        bool          `json:"is_closed"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"` // UTC
	UpdatedAt       time.Time     `json:"updated_at"` // UTC
}

// IsOpen reports whether teachers can apply to the post.
func (p Post) IsOpen() bool { return p.Status == PostApproved && !p.IsClosed }

type Application struct {
	ID              string    `json:"id"`
	PostID          string    `json:"post_id"`
	TeacherID       string    `json:"teacher_id"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// Candidate is an application with its teacher's contact; the post owner only sees admin-approved ones.
type Candidate struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	Email       string    `json:"email"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// NearbyPost carries the distance from the search center when it was asked for.
type NearbyPost struct {
	Post
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// NewPost contains information needed to create a new Post.
type NewPost struct {
	Title      string        `json:"title" validate:"required,max=200"`
	Details    string        `json:"details" validate:"max=5000"`
	ClassLevel string        `json:"class_level" validate:"required"`
	Subjects   []string      `json:"subjects" validate:"dive,notblank"`
	SalaryMin  int           `json:"salary_min" validate:"gte=0"`
	SalaryMax  int           `json:"salary_max" validate:"omitempty,gtefield=SalaryMin"`
	Location   core.Location `json:"location"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Details = core.CleanString(np.Details)
	np.ClassLevel = core.CleanString(np.ClassLevel)
	np.Location.City = core.CleanString(np.Location.City)
	np.Location.Area = core.CleanString(np.Location.Area)
	if err := validate.Struct(np); err != nil {
		return err
	}
	np.Subjects = core.CleanStrings(np.Subjects)
	return nil
}

// PostReview is the admin decision on a post.
type PostReview struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Reason string `json:"reason" validate:"max=500"`
}

func (pr *PostReview) Validate(validate *validator.Validate) error {
	pr.Status = core.CleanString(pr.Status, true /* lower */)
	pr.Reason = core.CleanString(pr.Reason)
	return validate.Struct(pr)
}

// ApplicationReview is the admin decision on an application.
type ApplicationReview struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason" validate:"max=500"`
}

func (ar *ApplicationReview) Validate(validate *validator.Validate) error {
	ar.Action = core.CleanString(ar.Action, true /* lower */)
	ar.Reason = core.CleanString(ar.Reason)
	return validate.Struct(ar)
}

// Decisions
const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

// Decision is the post owner's answer to an admin-approved application.
type Decision struct {
	Decision string `json:"-" validate:"required,oneof=accept reject"`
	Reason   string `json:"reason" validate:"max=500"`
}

func (d *Decision) Validate(validate *validator.Validate) error {
	d.Decision = core.CleanString(d.Decision, true /* lower */)
	d.Reason = core.CleanString(d.Reason)
	return validate.Struct(d)
}

// PostFilter applies AND operation on its set fields.
type PostFilter struct {
	StudentID  string `query:"-"`
	Status     string `query:"-"`
	OpenOnly   bool   `query:"-"`
	Subject    string `query:"subject"`
	ClassLevel string `query:"class_level"`
	City       string `query:"city"`
	MinSalary  int    `query:"min_salary"`
	MaxSalary  int    `query:"max_salary"`
	// Subjects matches posts sharing at least one subject.
	Subjects []string   `query:"-"`
	Near     *core.Near `query:"-"`
}

func (f *PostFilter) Clean() {
	f.Subject = core.CleanString(f.Subject)
	f.ClassLevel = core.CleanString(f.ClassLevel)
	f.City = core.CleanString(f.City)
	f.Subjects = core.CleanStrings(f.Subjects)
}

// Match reports whether `p` satisfies the filter.
func (f PostFilter) Match(p Post) bool {
	if f.StudentID != "" && p.StudentID != f.StudentID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.OpenOnly && !p.IsOpen() {
		return false
	}
	if f.Subject != "" && !core.ContainsString(p.Subjects, f.Subject) {
		return false
	}
	if len(f.Subjects) > 0 && !core.ContainsAny(p.Subjects, f.Subjects) {
		return false
	}
	if f.ClassLevel != "" && !strings.EqualFold(p.ClassLevel, f.ClassLevel) {
		return false
	}
	if f.City != "" && !core.ContainsFold(p.Location.City, f.City) {
		return false
	}
	if f.MinSalary > 0 && p.SalaryMax > 0 && p.SalaryMax < f.MinSalary {
		return false
	}
	if f.MaxSalary > 0 && p.SalaryMin > f.MaxSalary {
		return false
	}
	if f.Near != nil && !f.Near.Contains(p.Location) {
		return false
	}
	return true
}

// ApplicationFilter applies AND operation on its set fields.
type ApplicationFilter struct {
	PostID    string
	TeacherID string
	Status    string
}

func (f ApplicationFilter) Match(a Application) bool {
	if f.PostID != "" && a.PostID != f.PostID {
		return false
	}
	if f.TeacherID != "" && a.TeacherID != f.TeacherID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

// NearbyQuery searches open posts around a point, nearest first.
type NearbyQuery struct {
	Lat          *float64 `query:"lat"`
	Lng          *float64 `query:"lng"`
	RadiusKm     float64  `query:"radius_km"`
	WithDistance bool     `query:"with_distance"`
	ClassLevel   string   `query:"class_level"`
	Subjects     string   `query:"subjects"` // comma separated
	City         string   `query:"city"`
	core.Page
}

func (nq *NearbyQuery) Validate() error {
	if nq.Lat == nil || nq.Lng == nil {
		return core.NewValidationError(errors.New("lat and lng are required and must be numbers"))
	}
	if *nq.Lat < -90 || *nq.Lat > 90 || *nq.Lng < -180 || *nq.Lng > 180 {
		return core.NewValidationError(errors.New("lat/lng out of range"))
	}
	if nq.RadiusKm <= 0 {
		nq.RadiusKm = defaultRadiusKm
	}
	if nq.RadiusKm > maxRadiusKm {
		nq.RadiusKm = maxRadiusKm
	}
	nq.Page.Clean(defaultPageSize, maxPageSize)
	return nil
}

func (nq NearbyQuery) filter() PostFilter {
	f := PostFilter{
		OpenOnly:   true,
		ClassLevel: nq.ClassLevel,
		City:       nq.City,
		Subjects:   strings.Split(nq.Subjects, ","),
		Near:       &core.Near{Lat: *nq.Lat, Lng: *nq.Lng, RadiusKm: nq.RadiusKm},
	}
	f.Clean()
	return f
}
