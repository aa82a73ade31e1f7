package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/announcement"
)

type announcementRow struct {
	ID               string      `db:"id"`
	Title            string      `db:"title"`
	Description      string      `db:"description"`
	Type             string      `db:"type"`
	Priority         string      `db:"priority"`
	ImageURL         string      `db:"image_url"`
	ActionURL        string      `db:"action_url"`
	DisplayStartDate time.Time   `db:"display_start_date"`
	DisplayEndDate   null.Time   `db:"display_end_date"`
	IsActive         bool        `db:"is_active"`
	CreatedBy        null.String `db:"created_by"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func newAnnouncementRow(a announcement.Announcement) announcementRow {
	return announcementRow{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		Type:             a.Type,
		Priority:         a.Priority,
		ImageURL:         a.ImageURL,
		ActionURL:        a.ActionURL,
		DisplayStartDate: a.DisplayStartDate,
		DisplayEndDate:   null.TimeFromPtr(a.DisplayEndDate),
		IsActive:         a.IsActive,
		CreatedBy:        null.NewString(a.CreatedBy, a.CreatedBy != ""),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (row announcementRow) announcement() announcement.Announcement {
	a := announcement.Announcement{
		ID:               row.ID,
		Title:            row.Title,
		Description:      row.Description,
		Type:             row.Type,
		Priority:         row.Priority,
		ImageURL:         row.ImageURL,
		ActionURL:        row.ActionURL,
		DisplayStartDate: row.DisplayStartDate.UTC(),
		IsActive:         row.IsActive,
		CreatedBy:        row.CreatedBy.String,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
	if row.DisplayEndDate.Valid {
		end := row.DisplayEndDate.Time.UTC()
		a.DisplayEndDate = &end
	}
	return a
}

type announcementRepository struct {
	db core.DB
}

func NewAnnouncementRepository(db core.DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	const q = `
		INSERT INTO announcements (
			id, title, description, type, priority, image_url, action_url, display_start_date,
			display_end_date, is_active, created_by, created_at, updated_at
		) VALUES (
			:id, :title, :description, :type, :priority, :image_url, :action_url, :display_start_date,
			:display_end_date, :is_active, :created_by, :created_at, :updated_at
		)`
	if _, err := repo.db.NamedExecContext(ctx, q, newAnnouncementRow(a)); err != nil {
		return announcement.Announcement{}, err
	}
	return a, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM announcements WHERE id = $1`, id); err != nil {
		return announcement.Announcement{}, notFound(err, announcement.ErrNotFound)
	}
	return row.announcement(), nil
}

func (repo *announcementRepository) ListAnnouncements(ctx context.Context, activeAt *time.Time) ([]announcement.Announcement, error) {
	var w where
	if activeAt != nil {
		w.add("is_active")
		w.add("display_start_date <= ?", *activeAt)
		w.add("(display_end_date IS NULL OR display_end_date > ?)", *activeAt)
	}
	var rows []announcementRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM announcements`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "listing announcements")
	}
	list := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.announcement())
	}
	return list, nil
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	const q = `
		UPDATE announcements SET
			title = :title, description = :description, type = :type, priority = :priority,
			image_url = :image_url, action_url = :action_url, display_start_date = :display_start_date,
			display_end_date = :display_end_date, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newAnnouncementRow(a))
	if err != nil {
		return announcement.Announcement{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	return a, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return announcement.ErrNotFound
	}
	return nil
}
