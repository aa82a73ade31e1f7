package notification

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/etarip26/EduConnect/core"
)

// Types
const (
	TypeInfo        = "info"
	TypeTuition     = "tuition"
	TypeApplication = "application"
	TypeMatch       = "match"
	TypeDemo        = "demo"
	TypeAdmin       = "admin"
)

// EventCreated is the domain event type published once a notification is stored.
const EventCreated = "notification.created"

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID string    `json:"related_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewNotice is an admin-authored notification sent to one account.
type NewNotice struct {
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
	Type    string `json:"type"`
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.UserID = core.CleanString(nn.UserID)
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	if nn.Type == "" {
		nn.Type = TypeAdmin
	}
	return validate.Struct(nn)
}
