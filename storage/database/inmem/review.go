package inmemdb

import (
	"context"
	"sort"

	"github.com/etarip26/EduConnect/core/review"
)

type reviewRepository struct {
	db *DB
}

func NewReviewRepository(db *DB) review.Repository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) UpsertReview(_ context.Context, r review.Review) (review.Review, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.reviews {
		if existing.TeacherID == r.TeacherID && existing.StudentID == r.StudentID {
			existing.MatchID = r.MatchID
			existing.Rating = r.Rating
			existing.Comment = r.Comment
			existing.UpdatedAt = r.UpdatedAt
			return *existing, nil
		}
	}
	repo.db.reviews[r.ID] = &r
	return r, nil
}

func (repo *reviewRepository) ListReviewsByTeacher(_ context.Context, teacherID string) ([]review.Review, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]review.Review, 0)
	for _, r := range repo.db.reviews {
		if r.TeacherID == teacherID {
			list = append(list, *r)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *reviewRepository) TeacherRating(_ context.Context, teacherID string) (float64, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var sum, count int
	for _, r := range repo.db.reviews {
		if r.TeacherID == teacherID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
