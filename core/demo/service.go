package demo

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("demo session not found")
	ErrNotMatchStudent  = core.NewAuthorizationError("only the student of the match can request a demo")
	ErrNotParty         = core.NewAuthorizationError("not a party to this demo session")
	ErrAlreadyCompleted = core.NewConflictError("demo session already completed")
	ErrNotApproved      = core.NewConflictError("only approved demo sessions can be completed")
)

type (
	Repository interface {
		CreateDemoSession(ctx context.Context, s Session) (Session, error)
		GetDemoSession(ctx context.Context, id string) (Session, error)
		// QueryDemoSessions applies AND operation on available QueryFilter fields, newest first.
		QueryDemoSessions(ctx context.Context, filter QueryFilter) ([]Session, error)
		UpdateDemoSession(ctx context.Context, s Session) (Session, error)
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
		notifier notification.Notifier
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	matches Matches,
	gate Gate,
	notifier notification.Notifier,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		matches:  matches,
		gate:     gate,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

// RequestDemo books a demo for the match; the admins decide on it.
func (svc *Service) RequestDemo(ctx context.Context, student user.User, nr NewRequest) (Session, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return Session{}, err
	}
	m, err := svc.matches.Find(ctx, nr.MatchID)
	if err != nil {
		return Session{}, err
	}
	if m.StudentID != student.ID {
		return Session{}, ErrNotMatchStudent
	}
	if err = svc.gate.Check(ctx, m, student, match.CapabilityDemo); err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	s := Session{
		ID:          uuid.NewString(),
		MatchID:     m.ID,
		StudentID:   m.StudentID,
		TeacherID:   m.TeacherID,
		RequestedBy: student.ID,
		ScheduledAt: nr.ScheduledAt,
		Status:      StatusRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s, err = svc.repo.CreateDemoSession(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "creating demo session")
	}

	n := notification.Notification{
		Title:     "Demo requested",
		Message:   student.Name + " requested a demo class.",
		Type:      notification.TypeDemo,
		RelatedID: s.ID,
	}
	svc.notifier.NotifyRole(ctx, user.RoleAdmin, n)
	n.UserID = s.TeacherID
	svc.notifier.Notify(ctx, n)
	return s, nil
}

// AdminSetDemoStatus approves or rejects a demo session and tells both parties.
func (svc *Service) AdminSetDemoStatus(ctx context.Context, admin user.User, id string, su StatusUpdate) (Session, error) {
	if err := su.Validate(svc.validate); err != nil {
		return Session{}, err
	}
	s, err := svc.repo.GetDemoSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Status == StatusCompleted {
		return Session{}, ErrAlreadyCompleted
	}
	s.Status = su.Status
	if su.ScheduledAt != nil {
		at := su.ScheduledAt.UTC()
		s.ScheduledAt = &at
	}
	s.UpdatedAt = time.Now().UTC()
	if s, err = svc.repo.UpdateDemoSession(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "updating demo session")
	}
	core.Audit(svc.logger, admin.ID, "demo."+s.Status, s.ID)

	n := notification.Notification{
		Title:     "Demo " + s.Status,
		Message:   "Your demo session was " + s.Status + ".",
		Type:      notification.TypeDemo,
		RelatedID: s.ID,
	}
	for _, uid := range []string{s.StudentID, s.TeacherID} {
		n.UserID = uid
		svc.notifier.Notify(ctx, n)
	}
	return s, nil
}

// Complete lets a party mark an approved session as held.
func (svc *Service) Complete(ctx context.Context, actor user.User, id string) (Session, error) {
	s, err := svc.repo.GetDemoSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !s.HasParty(actor.ID) {
		return Session{}, ErrNotParty
	}
	m, err := svc.matches.Find(ctx, s.MatchID)
	if err != nil {
		return Session{}, errors.Wrap(err, "finding demo match")
	}
	if err = svc.gate.Check(ctx, m, actor, match.CapabilityDemo); err != nil {
		return Session{}, err
	}
	switch s.Status {
	case StatusCompleted:
		return Session{}, ErrAlreadyCompleted
	case StatusApproved:
	default:
		return Session{}, ErrNotApproved
	}

	s.Status = StatusCompleted
	s.UpdatedAt = time.Now().UTC()
	s, err = svc.repo.UpdateDemoSession(ctx, s)
	return s, errors.Wrap(err, "completing demo session")
}

func (svc *Service) ListAll(ctx context.Context, status string) ([]Session, error) {
	return svc.repo.QueryDemoSessions(ctx, QueryFilter{Status: core.CleanString(status, true /* lower */)})
}

func (svc *Service) ListMine(ctx context.Context, usr user.User) ([]Session, error) {
	var filter QueryFilter
	switch {
	case usr.IsStudent():
		filter.StudentID = usr.ID
	case usr.IsTeacher():
		filter.TeacherID = usr.ID
	case !usr.IsAdmin():
		return []Session{}, nil
	}
	return svc.repo.QueryDemoSessions(ctx, filter)
}
