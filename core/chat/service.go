package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrRoomNotFound = core.NewNotFoundError("chat room not found")
	ErrRoomExists   = core.NewConflictError("chat room already exists for this match")
	ErrNotMember    = core.NewAuthorizationError("not a member of this chat room")
	ErrEmptyMessage = core.NewValidationError(nil, core.FieldError{Field: "content", Error: "content is required"})
	ErrTooLong      = core.NewValidationError(nil, core.FieldError{Field: "content", Error: "content is too long"})
)

type (
	Repository interface {
		// CreateRoom fails with ErrRoomExists when the match already has a room.
		CreateRoom(ctx context.Context, r Room) (Room, error)
		GetRoom(ctx context.Context, id string) (Room, error)
		GetRoomByMatch(ctx context.Context, matchID string) (Room, error)
		// ListRoomsByMember returns the rooms of the account, most recently active first.
		ListRoomsByMember(ctx context.Context, userID string) ([]Room, error)
		// CreateMessage stores the message and bumps the room's last message time.
		CreateMessage(ctx context.Context, m Message) (Message, error)
		// ListMessages returns the room's messages, oldest first.
		ListMessages(ctx context.Context, roomID string) ([]Message, error)
		// MarkMessagesSeen marks the messages of the room not sent by `readerID` as seen.
		MarkMessagesSeen(ctx context.Context, roomID, readerID string) (int, error)
	}

	Matches interface {
		Find(ctx context.Context, id string) (match.Match, error)
	}

	Gate interface {
		Check(ctx context.Context, m match.Match, actor user.User, c match.Capability) error
	}

	Service struct {
		repo     Repository
		matches  Matches
		gate     Gate
		broker   core.Broker
		denyList []string
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	matches Matches,
	gate Gate,
	broker core.Broker,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		matches:  matches,
		gate:     gate,
		broker:   broker,
		denyList: conf.Chat.DenyList,
		logger:   logger,
	}
}

// GetOrCreateRoom returns the room of the match, creating it on first use.
func (svc *Service) GetOrCreateRoom(ctx context.Context, usr user.User, matchID string) (Room, error) {
	m, err := svc.matches.Find(ctx, core.CleanString(matchID))
	if err != nil {
		return Room{}, err
	}
	if err = svc.gate.Check(ctx, m, usr, match.CapabilityChat); err != nil {
		return Room{}, err
	}

	r, err := svc.repo.GetRoomByMatch(ctx, m.ID)
	if err == nil {
		return r, nil
	}
	if !core.IsNotFound(err) {
		return Room{}, errors.Wrap(err, "finding room")
	}

	now := time.Now().UTC()
	r, err = svc.repo.CreateRoom(ctx, Room{
		ID:        uuid.NewString(),
		MatchID:   m.ID,
		StudentID: m.StudentID,
		TeacherID: m.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Cause(err) == ErrRoomExists { // created concurrently by the other party
			return svc.repo.GetRoomByMatch(ctx, m.ID)
		}
		return Room{}, errors.Wrap(err, "creating room")
	}
	return r, nil
}

func (svc *Service) ListMyRooms(ctx context.Context, usr user.User) ([]Room, error) {
	return svc.repo.ListRoomsByMember(ctx, usr.ID)
}

// authorize re-checks membership and the chat gate; nothing about the room is cached between calls.
func (svc *Service) authorize(ctx context.Context, usr user.User, roomID string) (Room, error) {
	r, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if !r.HasMember(usr.ID) {
		return Room{}, ErrNotMember
	}
	m, err := svc.matches.Find(ctx, r.MatchID)
	if err != nil {
		return Room{}, errors.Wrap(err, "finding room match")
	}
	if err = svc.gate.Check(ctx, m, usr, match.CapabilityChat); err != nil {
		return Room{}, err
	}
	return r, nil
}

func (svc *Service) ListMessages(ctx context.Context, usr user.User, roomID string) ([]Message, error) {
	r, err := svc.authorize(ctx, usr, roomID)
	if err != nil {
		return nil, err
	}
	return svc.repo.ListMessages(ctx, r.ID)
}

// SendMessage moderates, stores and relays a message. Rejected content is never stored.
func (svc *Service) SendMessage(ctx context.Context, usr user.User, roomID, content string) (Message, error) {
	r, err := svc.authorize(ctx, usr, roomID)
	if err != nil {
		return Message{}, err
	}
	content = core.CleanString(content)
	if content == "" {
		return Message{}, ErrEmptyMessage
	}
	if len([]rune(content)) > maxContentLen {
		return Message{}, ErrTooLong
	}
	if err = Moderate(content, svc.denyList); err != nil {
		return Message{}, err
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		ID:        uuid.NewString(),
		RoomID:    r.ID,
		SenderID:  usr.ID,
		Content:   content,
		Status:    StatusSent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	svc.publish(ctx, Event{Type: EventMessage, RoomID: r.ID, UserID: usr.ID, Message: &msg})
	return msg, nil
}

// MarkRead marks the other party's messages as seen.
func (svc *Service) MarkRead(ctx context.Context, usr user.User, roomID string) (int, error) {
	r, err := svc.authorize(ctx, usr, roomID)
	if err != nil {
		return 0, err
	}
	n, err := svc.repo.MarkMessagesSeen(ctx, r.ID, usr.ID)
	if err != nil {
		return 0, errors.Wrap(err, "marking messages seen")
	}
	if n > 0 {
		svc.publish(ctx, Event{Type: EventRead, RoomID: r.ID, UserID: usr.ID})
	}
	return n, nil
}

// Typing relays a typing indicator; nothing is stored.
func (svc *Service) Typing(ctx context.Context, usr user.User, roomID string) error {
	r, err := svc.authorize(ctx, usr, roomID)
	if err != nil {
		return err
	}
	svc.publish(ctx, Event{Type: EventTyping, RoomID: r.ID, UserID: usr.ID})
	return nil
}

// Subscribe opens a realtime feed of the room's events.
func (svc *Service) Subscribe(ctx context.Context, usr user.User, roomID string) (core.Subscription, error) {
	r, err := svc.authorize(ctx, usr, roomID)
	if err != nil {
		return nil, err
	}
	return svc.broker.Subscribe(ctx, Topic(r.ID))
}

// publish is best-effort: a relay failure never fails the write that triggered it.
func (svc *Service) publish(ctx context.Context, evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		svc.logger.Error(errors.Wrap(err, "encoding chat event").Error())
		return
	}
	if err = svc.broker.Publish(ctx, Topic(evt.RoomID), payload); err != nil {
		svc.logger.Warn(errors.Wrap(err, "publishing chat event").Error(), map[string]interface{}{"room_id": evt.RoomID})
	}
}
