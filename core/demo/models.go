package demo

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/etarip26/EduConnect/core"
)

// Statuses
const (
	StatusRequested = "requested"
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

type Session struct {
	ID          string     `json:"id"`
	MatchID     string     `json:"match_id"`
	StudentID   string     `json:"student_id"`
	TeacherID   string     `json:"teacher_id"`
	RequestedBy string     `json:"requested_by"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"` // UTC
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

func (s Session) HasParty(userID string) bool {
	return userID != "" && (s.StudentID == userID || s.TeacherID == userID)
}

type NewRequest struct {
	MatchID     string     `json:"match_id" validate:"required"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.MatchID = core.CleanString(nr.MatchID)
	if nr.ScheduledAt != nil {
		at := nr.ScheduledAt.UTC()
		nr.ScheduledAt = &at
	}
	return validate.Struct(nr)
}

// StatusUpdate is the admin decision on a demo request.
type StatusUpdate struct {
	Status      string     `json:"status" validate:"required,oneof=approved rejected"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	StudentID string
	TeacherID string
	Status    string
}

func (f QueryFilter) Match(s Session) bool {
	if f.StudentID != "" && s.StudentID != f.StudentID {
		return false
	}
	if f.TeacherID != "" && s.TeacherID != f.TeacherID {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}
