package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("notification not found")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotification(ctx context.Context, id string) (Notification, error)
		// ListNotificationsByUser returns the account's notifications, newest first.
		ListNotificationsByUser(ctx context.Context, userID string) ([]Notification, error)
		SetNotificationRead(ctx context.Context, id string) (Notification, error)
		// MarkAllNotificationsRead returns the number of notifications it changed.
		MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
		DeleteNotification(ctx context.Context, id string) error
	}

	// Notifier is what the workflow services depend on to inform accounts of state changes.
	Notifier interface {
		Notify(ctx context.Context, n Notification)
		NotifyRole(ctx context.Context, role string, n Notification)
	}

	// Directory resolves notification recipients.
	Directory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		Query(ctx context.Context, filter user.QueryFilter) ([]user.User, error)
	}

	Service struct {
		repo      Repository
		users     Directory
		publisher core.EventPublisher
		mailSvc   core.EmailService
		validate  *validator.Validate
		logger    core.Logger
	}
)

var _ Notifier = (*Service)(nil)

func NewService(
	repo Repository,
	users Directory,
	publisher core.EventPublisher,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		mailSvc:   mailSvc,
		validate:  validate,
		logger:    logger,
	}
}

// Notify stores `n` and publishes it as a domain event.
// It never fails the caller: errors are logged.
func (svc *Service) Notify(ctx context.Context, n Notification) {
	if _, err := svc.create(ctx, n); err != nil {
		svc.logger.Error(err.Error(), map[string]interface{}{"user_id": n.UserID, "title": n.Title})
	}
}

// NotifyRole sends a copy of `n` to every account of `role`.
func (svc *Service) NotifyRole(ctx context.Context, role string, n Notification) {
	usrs, err := svc.users.Query(ctx, user.QueryFilter{Role: role})
	if err != nil {
		svc.logger.Error(errors.Wrap(err, "finding recipients").Error(), map[string]interface{}{"role": role})
		return
	}
	for _, usr := range usrs {
		n.UserID = usr.ID
		svc.Notify(ctx, n)
	}
}

func (svc *Service) create(ctx context.Context, n Notification) (Notification, error) {
	n.ID = uuid.NewString()
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()
	if n.Type == "" {
		n.Type = TypeInfo
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	if err = svc.publisher.Publish(ctx, core.NewEvent(EventCreated, n)); err != nil {
		svc.logger.Warn(errors.Wrap(err, "publishing notification event").Error())
	}
	return n, nil
}

// Create is the admin path: the recipient must exist and is also emailed.
func (svc *Service) Create(ctx context.Context, nn NewNotice) (Notification, error) {
	if err := nn.Validate(svc.validate); err != nil {
		return Notification{}, err
	}
	usr, err := svc.users.GetByID(ctx, nn.UserID)
	if err != nil {
		return Notification{}, err
	}
	n, err := svc.create(ctx, Notification{UserID: usr.ID, Title: nn.Title, Message: nn.Message, Type: nn.Type})
	if err != nil {
		return Notification{}, err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      n.Title,
		TemplateName: "notification",
		TemplateData: map[string]interface{}{
			"Name":    usr.Name,
			"Title":   n.Title,
			"Message": n.Message,
		},
	})
	return n, nil
}

func (svc *Service) ListMine(ctx context.Context, usr user.User) ([]Notification, error) {
	return svc.repo.ListNotificationsByUser(ctx, usr.ID)
}

// getMine hides other accounts' notifications behind ErrNotFound.
func (svc *Service) getMine(ctx context.Context, usr user.User, id string) (Notification, error) {
	n, err := svc.repo.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.UserID != usr.ID {
		return Notification{}, ErrNotFound
	}
	return n, nil
}

func (svc *Service) MarkRead(ctx context.Context, usr user.User, id string) (Notification, error) {
	if _, err := svc.getMine(ctx, usr, id); err != nil {
		return Notification{}, err
	}
	return svc.repo.SetNotificationRead(ctx, id)
}

func (svc *Service) MarkAllRead(ctx context.Context, usr user.User) (int, error) {
	return svc.repo.MarkAllNotificationsRead(ctx, usr.ID)
}

func (svc *Service) Delete(ctx context.Context, usr user.User, id string) error {
	if _, err := svc.getMine(ctx, usr, id); err != nil {
		return err
	}
	return svc.repo.DeleteNotification(ctx, id)
}
