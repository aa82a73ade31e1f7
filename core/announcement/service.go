package announcement

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

const maxActive = 10

var (
	// errors
	ErrNotFound = core.NewNotFoundError("announcement not found")
)

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncement(ctx context.Context, id string) (Announcement, error)
		// ListAnnouncements returns every announcement, newest first; activeAt keeps only the visible ones.
		ListAnnouncements(ctx context.Context, activeAt *time.Time) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{repo: repo, validate: validate, logger: logger}
}

// ListActive returns up to 10 announcements visible at `now`, by priority then most recent start.
func (svc *Service) ListActive(ctx context.Context, now time.Time) ([]Announcement, error) {
	now = now.UTC()
	list, err := svc.repo.ListAnnouncements(ctx, &now)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := priorityRank[list[i].Priority], priorityRank[list[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return list[i].DisplayStartDate.After(list[j].DisplayStartDate)
	})
	if len(list) > maxActive {
		list = list[:maxActive]
	}
	return list, nil
}

func (svc *Service) ListAll(ctx context.Context) ([]Announcement, error) {
	return svc.repo.ListAnnouncements(ctx, nil)
}

func (svc *Service) Create(ctx context.Context, admin user.User, in Input) (Announcement, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Announcement{}, err
	}
	now := time.Now().UTC()
	a := Announcement{
		ID:        uuid.NewString(),
		IsActive:  true,
		CreatedBy: admin.ID,
		CreatedAt: now,
	}
	in.apply(&a, now)
	a, err := svc.repo.CreateAnnouncement(ctx, a)
	if err != nil {
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	core.Audit(svc.logger, admin.ID, "announcement.create", a.ID)
	return a, nil
}

func (svc *Service) Update(ctx context.Context, admin user.User, id string, in Input) (Announcement, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Announcement{}, err
	}
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	in.apply(&a, time.Now().UTC())
	if a, err = svc.repo.UpdateAnnouncement(ctx, a); err != nil {
		return Announcement{}, errors.Wrap(err, "updating announcement")
	}
	core.Audit(svc.logger, admin.ID, "announcement.update", a.ID)
	return a, nil
}

func (svc *Service) Delete(ctx context.Context, admin user.User, id string) error {
	if _, err := svc.repo.GetAnnouncement(ctx, id); err != nil {
		return err
	}
	if err := svc.repo.DeleteAnnouncement(ctx, id); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	core.Audit(svc.logger, admin.ID, "announcement.delete", id)
	return nil
}

func (in Input) apply(a *Announcement, now time.Time) {
	a.Title = in.Title
	a.Description = in.Description
	a.Type = in.Type
	a.Priority = in.Priority
	a.ImageURL = in.ImageURL
	a.ActionURL = in.ActionURL
	if in.DisplayStartDate != nil {
		a.DisplayStartDate = in.DisplayStartDate.UTC()
	} else if a.DisplayStartDate.IsZero() {
		a.DisplayStartDate = now
	}
	if in.DisplayEndDate != nil {
		end := in.DisplayEndDate.UTC()
		a.DisplayEndDate = &end
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	a.UpdatedAt = now
}
