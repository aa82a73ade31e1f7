package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/storage/database"
)

type postRow struct {
	ID        string `db:"id"`
	StudentID string `db:"student_id"`
	locationCols
	Title           string         `db:"title"`
	Details         string         `db:"details"`
	ClassLevel      string         `db:"class_level"`
	Subjects        pq.StringArray `db:"subjects"`
	SalaryMin       int            `db:"salary_min"`
	SalaryMax       int            `db:"salary_max"`
	Status          string         `db:"status"`
	IsClosed        bool           `db:"is_closed"`
	RejectionReason string         `db:"rejection_reason"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func newPostRow(p tuition.Post) postRow {
	return postRow{
		ID:              p.ID,
		StudentID:       p.StudentID,
		locationCols:    fromLocation(p.Location),
		Title:           p.Title,
		Details:         p.Details,
		ClassLevel:      p.ClassLevel,
		Subjects:        stringArray(p.Subjects),
		SalaryMin:       p.SalaryMin,
		SalaryMax:       p.SalaryMax,
		Status:          p.Status,
		IsClosed:        p.IsClosed,
		RejectionReason: p.RejectionReason,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (row postRow) post() tuition.Post {
	return tuition.Post{
		ID:              row.ID,
		StudentID:       row.StudentID,
		Title:           row.Title,
		Details:         row.Details,
		ClassLevel:      row.ClassLevel,
		Subjects:        []string(row.Subjects),
		SalaryMin:       row.SalaryMin,
		SalaryMax:       row.SalaryMax,
		Location:        row.location(),
		Status:          row.Status,
		IsClosed:        row.IsClosed,
		RejectionReason: row.RejectionReason,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

type applicationRow struct {
	ID              string    `db:"id"`
	PostID          string    `db:"post_id"`
	TeacherID       string    `db:"teacher_id"`
	Status          string    `db:"status"`
	RejectionReason string    `db:"rejection_reason"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (row applicationRow) application() tuition.Application {
	return tuition.Application{
		ID:              row.ID,
		PostID:          row.PostID,
		TeacherID:       row.TeacherID,
		Status:          row.Status,
		RejectionReason: row.RejectionReason,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func applications(rows []applicationRow) []tuition.Application {
	apps := make([]tuition.Application, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, row.application())
	}
	return apps
}

type tuitionRepository struct {
	db core.DB
}

func NewTuitionRepository(db core.DB) tuition.Repository {
	return &tuitionRepository{db: db}
}

const insertPost = `
	INSERT INTO tuition_posts (
		id, student_id, title, details, class_level, subjects, salary_min, salary_max,
		lat, lng, city, area, status, is_closed, rejection_reason, created_at, updated_at
	) VALUES (
		:id, :student_id, :title, :details, :class_level, :subjects, :salary_min, :salary_max,
		:lat, :lng, :city, :area, :status, :is_closed, :rejection_reason, :created_at, :updated_at
	)`

func (repo *tuitionRepository) CreatePost(ctx context.Context, p tuition.Post) (tuition.Post, error) {
	if _, err := repo.db.NamedExecContext(ctx, insertPost, newPostRow(p)); err != nil {
		return tuition.Post{}, err
	}
	return p, nil
}

func (repo *tuitionRepository) GetPost(ctx context.Context, id string) (tuition.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM tuition_posts WHERE id = $1`, id); err != nil {
		return tuition.Post{}, notFound(err, tuition.ErrPostNotFound)
	}
	return row.post(), nil
}

// QueryPosts filters in SQL; the radius filter runs in Go.
func (repo *tuitionRepository) QueryPosts(ctx context.Context, filter tuition.PostFilter) ([]tuition.Post, error) {
	var w where
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.OpenOnly {
		w.add("status = ? AND is_closed = false", tuition.PostApproved)
	}
	if filter.Subject != "" {
		w.add("EXISTS (SELECT 1 FROM unnest(subjects) s WHERE lower(s) = lower(?))", filter.Subject)
	}
	if len(filter.Subjects) > 0 {
		w.add("EXISTS (SELECT 1 FROM unnest(subjects) s WHERE lower(s) = ANY(?))", pq.StringArray(lowered(filter.Subjects)))
	}
	if filter.ClassLevel != "" {
		w.add("lower(class_level) = lower(?)", filter.ClassLevel)
	}
	if filter.City != "" {
		w.add("city ILIKE ?", "%"+filter.City+"%")
	}
	if filter.MinSalary > 0 {
		w.add("(salary_max = 0 OR salary_max >= ?)", filter.MinSalary)
	}
	if filter.MaxSalary > 0 {
		w.add("salary_min <= ?", filter.MaxSalary)
	}
	if filter.Near != nil {
		w.add("lat IS NOT NULL AND lng IS NOT NULL")
	}

	var rows []postRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM tuition_posts`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	posts := make([]tuition.Post, 0, len(rows))
	for _, row := range rows {
		p := row.post()
		if filter.Near != nil && !filter.Near.Contains(p.Location) {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (repo *tuitionRepository) UpdatePost(ctx context.Context, p tuition.Post) (tuition.Post, error) {
	const q = `
		UPDATE tuition_posts SET
			title = :title, details = :details, class_level = :class_level, subjects = :subjects,
			salary_min = :salary_min, salary_max = :salary_max, lat = :lat, lng = :lng, city = :city,
			area = :area, status = :status, is_closed = :is_closed, rejection_reason = :rejection_reason,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newPostRow(p))
	if err != nil {
		return tuition.Post{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tuition.Post{}, tuition.ErrPostNotFound
	}
	return p, nil
}

func (repo *tuitionRepository) CreateApplication(ctx context.Context, a tuition.Application) (tuition.Application, error) {
	const q = `
		INSERT INTO applications (id, post_id, teacher_id, status, rejection_reason, created_at, updated_at)
		VALUES (:id, :post_id, :teacher_id, :status, :rejection_reason, :created_at, :updated_at)`
	row := applicationRow{
		ID:              a.ID,
		PostID:          a.PostID,
		TeacherID:       a.TeacherID,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return tuition.Application{}, tuition.ErrAlreadyApplied
		}
		return tuition.Application{}, err
	}
	return a, nil
}

func (repo *tuitionRepository) GetApplication(ctx context.Context, id string) (tuition.Application, error) {
	var row applicationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM applications WHERE id = $1`, id); err != nil {
		return tuition.Application{}, notFound(err, tuition.ErrApplicationNotFound)
	}
	return row.application(), nil
}

func (repo *tuitionRepository) QueryApplications(ctx context.Context, filter tuition.ApplicationFilter) ([]tuition.Application, error) {
	var w where
	if filter.PostID != "" {
		w.add("post_id = ?", filter.PostID)
	}
	if filter.TeacherID != "" {
		w.add("teacher_id = ?", filter.TeacherID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	var rows []applicationRow
	if err := selectWhere(ctx, repo.db, &rows, `SELECT * FROM applications`, w, `ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "querying applications")
	}
	return applications(rows), nil
}

// transition is the compare-and-swap on the application status.
func (repo *tuitionRepository) transition(ctx context.Context, db core.DBExecutor, id, from, to, reason string) (tuition.Application, error) {
	const q = `
		UPDATE applications SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING *`
	var row applicationRow
	err := db.GetContext(ctx, &row, q, to, reason, time.Now().UTC(), id, from)
	if err == nil {
		return row.application(), nil
	}
	if errors.Cause(err) != sql.ErrNoRows {
		return tuition.Application{}, err
	}
	// either absent or no longer in `from`
	if _, err = repo.GetApplication(ctx, id); err != nil {
		return tuition.Application{}, err
	}
	return tuition.Application{}, tuition.ErrInvalidTransition
}

func (repo *tuitionRepository) TransitionApplication(ctx context.Context, id, from, to, reason string) (tuition.Application, error) {
	return repo.transition(ctx, repo.db, id, from, to, reason)
}

func (repo *tuitionRepository) AcceptApplication(ctx context.Context, appID string, m match.Match) (tuition.Application, []tuition.Application, error) {
	var (
		accepted tuition.Application
		rejected []tuition.Application
	)
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var postID string
		if err := tx.GetContext(ctx, &postID, `SELECT post_id FROM applications WHERE id = $1`, appID); err != nil {
			return notFound(err, tuition.ErrApplicationNotFound)
		}
		// the post row lock serializes concurrent acceptances on the same post
		var closed bool
		if err := tx.GetContext(ctx, &closed, `SELECT is_closed FROM tuition_posts WHERE id = $1 FOR UPDATE`, postID); err != nil {
			return notFound(err, tuition.ErrPostNotFound)
		}
		if closed {
			return tuition.ErrPostClosed
		}

		var err error
		accepted, err = repo.transition(ctx, tx, appID, tuition.AppAdminApproved, tuition.AppAccepted, "")
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		var sibs []applicationRow
		const rejectSiblings = `
			UPDATE applications SET status = $1, updated_at = $2
			WHERE post_id = $3 AND id <> $4 AND status <> $1
			RETURNING *`
		if err = tx.SelectContext(ctx, &sibs, rejectSiblings, tuition.AppRejected, now, accepted.PostID, accepted.ID); err != nil {
			return errors.Wrap(err, "rejecting sibling applications")
		}
		rejected = applications(sibs)

		if _, err = tx.ExecContext(ctx, `UPDATE tuition_posts SET is_closed = true, updated_at = $1 WHERE id = $2`, now, accepted.PostID); err != nil {
			return errors.Wrap(err, "closing post")
		}
		if _, err = tx.NamedExecContext(ctx, insertMatch, newMatchRow(m)); err != nil {
			if isUniqueViolation(err) {
				return tuition.ErrInvalidTransition
			}
			return errors.Wrap(err, "creating match")
		}
		return nil
	})
	if err != nil {
		return tuition.Application{}, nil, err
	}
	return accepted, rejected, nil
}

func lowered(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = core.CleanString(s, true /* lower */)
	}
	return out
}
