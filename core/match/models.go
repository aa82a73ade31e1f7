package match

import "time"

// Statuses
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Capability names what an active match unlocks.
type Capability string

const (
	CapabilityChat Capability = "chat"
	CapabilityDemo Capability = "demo"
)

type Match struct {
	ID            string     `json:"id"`
	TuitionID     string     `json:"tuition_id"`
	StudentID     string     `json:"student_id"`
	TeacherID     string     `json:"teacher_id"`
	ApplicationID string     `json:"application_id"`
	Status        string     `json:"status"`
	IsChatAllowed bool       `json:"is_chat_allowed"`
	IsDemoAllowed bool       `json:"is_demo_allowed"`
	EndedAt       *time.Time `json:"ended_at,omitempty"` // UTC
	CreatedAt     time.Time  `json:"created_at"`         // UTC
	UpdatedAt     time.Time  `json:"updated_at"`         // UTC
}

// New returns an active match with every capability unlocked.
func New(id, tuitionID, studentID, teacherID, applicationID string, now time.Time) Match {
	return Match{
		ID:            id,
		TuitionID:     tuitionID,
		StudentID:     studentID,
		TeacherID:     teacherID,
		ApplicationID: applicationID,
		Status:        StatusActive,
		IsChatAllowed: true,
		IsDemoAllowed: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (m Match) IsActive() bool { return m.Status == StatusActive }

// HasParty reports whether the account is the student or the teacher of the match.
func (m Match) HasParty(userID string) bool {
	return userID != "" && (m.StudentID == userID || m.TeacherID == userID)
}

// Allows reports the capability flag; it ignores the match status.
func (m Match) Allows(c Capability) bool {
	switch c {
	case CapabilityChat:
		return m.IsChatAllowed
	case CapabilityDemo:
		return m.IsDemoAllowed
	}
	return false
}

// QueryFilter applies AND operation on its set fields.
type QueryFilter struct {
	StudentID string
	TeacherID string
	Status    string
}

func (f QueryFilter) Match(m Match) bool {
	if f.StudentID != "" && m.StudentID != f.StudentID {
		return false
	}
	if f.TeacherID != "" && m.TeacherID != f.TeacherID {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	return true
}

// Capabilities is the admin update of the capability flags; nil fields are left unchanged.
type Capabilities struct {
	IsChatAllowed *bool `json:"is_chat_allowed"`
	IsDemoAllowed *bool `json:"is_demo_allowed"`
}
