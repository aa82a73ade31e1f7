package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/review"
)

type reviewRow struct {
	ID        string      `db:"id"`
	TeacherID string      `db:"teacher_id"`
	StudentID string      `db:"student_id"`
	MatchID   null.String `db:"match_id"`
	Rating    int         `db:"rating"`
	Comment   string      `db:"comment"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (row reviewRow) review() review.Review {
	return review.Review{
		ID:        row.ID,
		TeacherID: row.TeacherID,
		StudentID: row.StudentID,
		MatchID:   row.MatchID.String,
		Rating:    row.Rating,
		Comment:   row.Comment,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type reviewRepository struct {
	db core.DB
}

func NewReviewRepository(db core.DB) review.Repository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) UpsertReview(ctx context.Context, r review.Review) (review.Review, error) {
	const q = `
		INSERT INTO reviews (id, teacher_id, student_id, match_id, rating, comment, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_id, :match_id, :rating, :comment, :created_at, :updated_at)
		ON CONFLICT (teacher_id, student_id) DO UPDATE SET
			match_id = COALESCE(EXCLUDED.match_id, reviews.match_id),
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_at = EXCLUDED.updated_at
		RETURNING *`
	row := reviewRow{
		ID:        r.ID,
		TeacherID: r.TeacherID,
		StudentID: r.StudentID,
		MatchID:   null.NewString(r.MatchID, r.MatchID != ""),
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	var saved reviewRow
	if err := namedGet(ctx, repo.db, &saved, q, row); err != nil {
		return review.Review{}, err
	}
	return saved.review(), nil
}

func (repo *reviewRepository) ListReviewsByTeacher(ctx context.Context, teacherID string) ([]review.Review, error) {
	var rows []reviewRow
	if err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM reviews WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID,
	); err != nil {
		return nil, errors.Wrap(err, "listing reviews")
	}
	reviews := make([]review.Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, row.review())
	}
	return reviews, nil
}

func (repo *reviewRepository) TeacherRating(ctx context.Context, teacherID string) (float64, int, error) {
	var agg struct {
		Avg   float64 `db:"avg"`
		Count int     `db:"count"`
	}
	const q = `SELECT COALESCE(AVG(rating), 0)::float8 AS avg, COUNT(*) AS count FROM reviews WHERE teacher_id = $1`
	if err := repo.db.GetContext(ctx, &agg, q, teacherID); err != nil {
		return 0, 0, errors.Wrap(err, "aggregating ratings")
	}
	return agg.Avg, agg.Count, nil
}
