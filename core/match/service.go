package match

import (
	"context"
	"time"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("match not found")
	ErrAlreadyEnded = core.NewConflictError("match already ended")
)

type (
	Repository interface {
		GetMatch(ctx context.Context, id string) (Match, error)
		// QueryMatches returns the matching rows, newest first.
		QueryMatches(ctx context.Context, filter QueryFilter) ([]Match, error)
		// EndMatch moves an active match to ended; ErrAlreadyEnded when it was not active.
		EndMatch(ctx context.Context, id string, at time.Time) (Match, error)
		UpdateMatchCapabilities(ctx context.Context, id string, chat, demo bool) (Match, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListMine returns the caller's matches; admins see all of them.
func (svc *Service) ListMine(ctx context.Context, usr user.User) ([]Match, error) {
	var filter QueryFilter
	switch {
	case usr.IsStudent():
		filter.StudentID = usr.ID
	case usr.IsTeacher():
		filter.TeacherID = usr.ID
	case !usr.IsAdmin():
		return []Match{}, nil
	}
	return svc.repo.QueryMatches(ctx, filter)
}

// Find returns the match without any access check.
func (svc *Service) Find(ctx context.Context, id string) (Match, error) {
	return svc.repo.GetMatch(ctx, id)
}

// Get returns the match to one of its parties or an admin.
func (svc *Service) Get(ctx context.Context, usr user.User, id string) (Match, error) {
	m, err := svc.repo.GetMatch(ctx, id)
	if err != nil {
		return Match{}, err
	}
	if !usr.IsAdmin() && !m.HasParty(usr.ID) {
		return Match{}, ErrNotParty
	}
	return m, nil
}

func (svc *Service) End(ctx context.Context, usr user.User, id string) (Match, error) {
	m, err := svc.Get(ctx, usr, id)
	if err != nil {
		return Match{}, err
	}
	if !m.IsActive() {
		return Match{}, ErrAlreadyEnded
	}
	return svc.repo.EndMatch(ctx, id, time.Now().UTC())
}

// SetCapabilities is the admin switch over chat and demo of a match.
func (svc *Service) SetCapabilities(ctx context.Context, id string, caps Capabilities) (Match, error) {
	m, err := svc.repo.GetMatch(ctx, id)
	if err != nil {
		return Match{}, err
	}
	chat, demo := m.IsChatAllowed, m.IsDemoAllowed
	if caps.IsChatAllowed != nil {
		chat = *caps.IsChatAllowed
	}
	if caps.IsDemoAllowed != nil {
		demo = *caps.IsDemoAllowed
	}
	return svc.repo.UpdateMatchCapabilities(ctx, id, chat, demo)
}
