package review

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

type Review struct {
	ID        string    `json:"id"`
	TeacherID string    `json:"teacher_id"`
	StudentID string    `json:"student_id"`
	MatchID   string    `json:"match_id,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// WithStudent is a review listed with its author.
type WithStudent struct {
	Review
	Student *user.Public `json:"student,omitempty"`
}

type NewReview struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
	MatchID string `json:"match_id"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Comment = core.CleanString(nr.Comment)
	nr.MatchID = core.CleanString(nr.MatchID)
	return validate.Struct(nr)
}
