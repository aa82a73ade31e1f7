package chat

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
)

// Message statuses
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
)

// Realtime event types
const (
	EventMessage = "message"
	EventTyping  = "typing"
	EventRead    = "read"
)

const maxContentLen = 4000

type Room struct {
	ID            string     `json:"id"`
	MatchID       string     `json:"match_id"`
	StudentID     string     `json:"student_id"`
	TeacherID     string     `json:"teacher_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"` // UTC
	CreatedAt     time.Time  `json:"created_at"`                // UTC
	UpdatedAt     time.Time  `json:"updated_at"`                // UTC
}

func (r Room) HasMember(userID string) bool {
	return userID != "" && (r.StudentID == userID || r.TeacherID == userID)
}

type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Event is what websocket subscribers of a room receive.
type Event struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"room_id"`
	UserID  string   `json:"user_id,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Topic is the broker topic of a room.
func Topic(roomID string) string { return "chat:room:" + roomID }

// Moderate rejects content holding any of the denied terms, ignoring case.
func Moderate(content string, denyList []string) error {
	lower := strings.ToLower(content)
	for _, term := range denyList {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(lower, term) {
			return core.NewValidationError(
				errors.Errorf("message contains a prohibited word: %s", term),
				core.FieldError{Field: "content", Error: "prohibited word: " + term},
			)
		}
	}
	return nil
}
