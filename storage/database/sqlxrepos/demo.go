package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/demo"
)

type demoRow struct {
	ID          string    `db:"id"`
	MatchID     string    `db:"match_id"`
	StudentID   string    `db:"student_id"`
	TeacherID   string    `db:"teacher_id"`
	RequestedBy string    `db:"requested_by"`
	ScheduledAt null.Time `db:"scheduled_at"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func newDemoRow(s demo.Session) demoRow {
	return demoRow{
		ID:          s.ID,
		MatchID:     s.MatchID,
		StudentID:   s.StudentID,
		TeacherID:   s.TeacherID,
		RequestedBy: s.RequestedBy,
		ScheduledAt: null.TimeFromPtr(s.ScheduledAt),
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (row demoRow) session() demo.Session {
	s := demo.Session{
		ID:          row.ID,
		MatchID:     row.MatchID,
		StudentID:   row.StudentID,
		TeacherID:   row.TeacherID,
		RequestedBy: row.RequestedBy,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
	if row.ScheduledAt.Valid {
		at := row.ScheduledAt.Time.UTC()
		s.ScheduledAt = &at
	}
	return s
}

type demoRepository struct {
	db core.DB
}

func NewDemoRepository(db core.DB) demo.Repository {
	return &demoRepository{db: db}
}

func (repo *demoRepository) CreateDemoSession(ctx context.Context, s demo.Session) (demo.Session, error) {
	const q = `
		INSERT INTO demo_sessions (id, match_id, student_id, teacher_id, requested_by, scheduled_at, status, created_at, updated_at)
		VALUES (:id, :match_id, :student_id, :teacher_id, :requested_by, :scheduled_at, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newDemoRow(s)); err != nil {
		return demo.Session{}, err
	}
	return s, nil
}

func (repo *demoRepository) GetDemoSession(ctx context.Context, id string) (demo.Session, error) {
	var row demoRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM demo_sessions WHERE id = $1`, id); err != nil {
		return demo.Session{}, notFound(err, demo.ErrNotFound)
	}
	return row.session(), nil
}

func (repo *demoRepository) QueryDemoSessions(ctx context.Context, filter demo.QueryFilter) ([]demo.Session, error) {
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
	var rows []demoRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM demo_sessions`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying demo sessions")
	}
	sessions := make([]demo.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.session())
	}
	return sessions, nil
}

func (repo *demoRepository) UpdateDemoSession(ctx context.Context, s demo.Session) (demo.Session, error) {
	const q = `
		UPDATE demo_sessions SET scheduled_at = :scheduled_at, status = :status, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newDemoRow(s))
	if err != nil {
		return demo.Session{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return demo.Session{}, demo.ErrNotFound
	}
	return s, nil
}
