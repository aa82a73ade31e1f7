package announcement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/etarip26/EduConnect/core"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var priorityRank = map[string]int{PriorityLow: 0, PriorityMedium: 1, PriorityHigh: 2}

type Announcement struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Type             string     `json:"type"`
	Priority         string     `json:"priority"`
	ImageURL         string     `json:"image_url,omitempty"`
	ActionURL        string     `json:"action_url,omitempty"`
	DisplayStartDate time.Time  `json:"display_start_date"`         // UTC
	DisplayEndDate   *time.Time `json:"display_end_date,omitempty"` // UTC
	IsActive         bool       `json:"is_active"`
	CreatedBy        string     `json:"created_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"` // UTC
	UpdatedAt        time.Time  `json:"updated_at"` // UTC
}

// VisibleAt reports whether the announcement is shown at `now`.
func (a Announcement) VisibleAt(now time.Time) bool {
	if !a.IsActive || a.DisplayStartDate.After(now) {
		return false
	}
	return a.DisplayEndDate == nil || a.DisplayEndDate.After(now)
}

// Input is what an admin sets on an announcement.
type Input struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Description      string     `json:"description" validate:"required"`
	Type             string     `json:"type" validate:"omitempty,oneof=notice alert info success"`
	Priority         string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	ImageURL         string     `json:"image_url" validate:"omitempty,url"`
	ActionURL        string     `json:"action_url" validate:"omitempty,url"`
	DisplayStartDate *time.Time `json:"display_start_date"`
	DisplayEndDate   *time.Time `json:"display_end_date"`
	IsActive         *bool      `json:"is_active"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Title = core.CleanString(in.Title)
	in.Description = core.CleanString(in.Description)
	in.Type = core.CleanString(in.Type, true /* lower */)
	in.Priority = core.CleanString(in.Priority, true /* lower */)
	in.ImageURL = core.CleanString(in.ImageURL)
	in.ActionURL = core.CleanString(in.ActionURL)
	if in.Type == "" {
		in.Type = "info"
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.DisplayStartDate != nil && in.DisplayEndDate != nil && in.DisplayEndDate.Before(*in.DisplayStartDate) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "display_end_date",
			Error: "display_end_date must be after display_start_date",
		})
	}
	return nil
}
