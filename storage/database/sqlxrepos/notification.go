package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/notification"
)

// notification columns match the struct fields one to one
type notificationRepository struct {
	db core.DB
}

func NewNotificationRepository(db core.DB) notification.Repository {
	return &notificationRepository{db: db}
}

const notificationCols = `id, user_id, title, message, type, related_id, is_read, created_at`

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	const q = `
		INSERT INTO notifications (` + notificationCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q, n.ID, n.UserID, n.Title, n.Message, n.Type, n.RelatedID, n.IsRead, n.CreatedAt)
	if err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (repo *notificationRepository) scan(ctx context.Context, q string, args ...interface{}) ([]notification.Notification, error) {
	rows, err := repo.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	list := make([]notification.Notification, 0)
	for rows.Next() {
		var n notification.Notification
		if err = rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.CreatedAt = n.CreatedAt.UTC()
		list = append(list, n)
	}
	return list, rows.Err()
}

func (repo *notificationRepository) one(ctx context.Context, q string, args ...interface{}) (notification.Notification, error) {
	list, err := repo.scan(ctx, q, args...)
	if err != nil {
		return notification.Notification{}, err
	}
	if len(list) == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return list[0], nil
}

func (repo *notificationRepository) GetNotification(ctx context.Context, id string) (notification.Notification, error) {
	return repo.one(ctx, `SELECT `+notificationCols+` FROM notifications WHERE id = $1`, id)
}

func (repo *notificationRepository) ListNotificationsByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	list, err := repo.scan(ctx, `SELECT `+notificationCols+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return list, errors.Wrap(err, "listing notifications")
}

func (repo *notificationRepository) SetNotificationRead(ctx context.Context, id string) (notification.Notification, error) {
	return repo.one(ctx, `UPDATE notifications SET is_read = true WHERE id = $1 RETURNING `+notificationCols, id)
}

func (repo *notificationRepository) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo *notificationRepository) DeleteNotification(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notification.ErrNotFound
	}
	return nil
}
