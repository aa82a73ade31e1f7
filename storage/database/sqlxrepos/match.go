package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
)

type matchRow struct {
	ID            string    `db:"id"`
	TuitionID     string    `db:"tuition_id"`
	StudentID     string    `db:"student_id"`
	TeacherID     string    `db:"teacher_id"`
	ApplicationID string    `db:"application_id"`
	Status        string    `db:"status"`
	IsChatAllowed bool      `db:"is_chat_allowed"`
	IsDemoAllowed bool      `db:"is_demo_allowed"`
	EndedAt       null.Time `db:"ended_at"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func newMatchRow(m match.Match) matchRow {
	return matchRow{
		ID:            m.ID,
		TuitionID:     m.TuitionID,
		StudentID:     m.StudentID,
		TeacherID:     m.TeacherID,
		ApplicationID: m.ApplicationID,
		Status:        m.Status,
		IsChatAllowed: m.IsChatAllowed,
		IsDemoAllowed: m.IsDemoAllowed,
		EndedAt:       null.TimeFromPtr(m.EndedAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (row matchRow) match() match.Match {
	m := match.Match{
		ID:            row.ID,
		TuitionID:     row.TuitionID,
		StudentID:     row.StudentID,
		TeacherID:     row.TeacherID,
		ApplicationID: row.ApplicationID,
		Status:        row.Status,
		IsChatAllowed: row.IsChatAllowed,
		IsDemoAllowed: row.IsDemoAllowed,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if row.EndedAt.Valid {
		at := row.EndedAt.Time.UTC()
		m.EndedAt = &at
	}
	return m
}

const insertMatch = `
	INSERT INTO matches (
		id, tuition_id, student_id, teacher_id, application_id, status, is_chat_allowed,
		is_demo_allowed, ended_at, created_at, updated_at
	) VALUES (
		:id, :tuition_id, :student_id, :teacher_id, :application_id, :status, :is_chat_allowed,
		:is_demo_allowed, :ended_at, :created_at, :updated_at
	)`

type matchRepository struct {
	db core.DB
}

func NewMatchRepository(db core.DB) match.Repository {
	return &matchRepository{db: db}
}

func (repo *matchRepository) GetMatch(ctx context.Context, id string) (match.Match, error) {
	var row matchRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM matches WHERE id = $1`, id); err != nil {
		return match.Match{}, notFound(err, match.ErrNotFound)
	}
	return row.match(), nil
}

func (repo *matchRepository) QueryMatches(ctx context.Context, filter match.QueryFilter) ([]match.Match, error) {
	var w where
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	var rows []matchRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM matches`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying matches")
	}
	matches := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, row.match())
	}
	return matches, nil
}

func (repo *matchRepository) EndMatch(ctx context.Context, id string, at time.Time) (match.Match, error) {
	const q = `
		UPDATE matches SET status = $1, ended_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING *`
	var row matchRow
	if err := repo.db.GetContext(ctx, &row, q, match.StatusEnded, at, id, match.StatusActive); err != nil {
		if err = notFound(err, match.ErrAlreadyEnded); err != match.ErrAlreadyEnded {
			return match.Match{}, err
		}
		if _, err := repo.GetMatch(ctx, id); err != nil {
			return match.Match{}, err
		}
		return match.Match{}, match.ErrAlreadyEnded
	}
	return row.match(), nil
}

func (repo *matchRepository) UpdateMatchCapabilities(ctx context.Context, id string, chat, demo bool) (match.Match, error) {
	const q = `
		UPDATE matches SET is_chat_allowed = $1, is_demo_allowed = $2, updated_at = $3
		WHERE id = $4
		RETURNING *`
	var row matchRow
	if err := repo.db.GetContext(ctx, &row, q, chat, demo, time.Now().UTC(), id); err != nil {
		return match.Match{}, notFound(err, match.ErrNotFound)
	}
	return row.match(), nil
}
