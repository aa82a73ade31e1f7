package inmemdb

import (
	"context"
	"sort"

	"github.com/etarip26/EduConnect/core/profile"
)

type profileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) UpsertStudentProfile(_ context.Context, p profile.StudentProfile) (profile.StudentProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.students[p.UserID]; ok {
		p.ID = orig.ID
		p.IsVerified = orig.IsVerified
		p.ParentControlEnabled = orig.ParentControlEnabled
		p.CreatedAt = orig.CreatedAt
	}
	repo.db.students[p.UserID] = &p
	return p, nil
}

func (repo *profileRepository) UpsertTeacherProfile(_ context.Context, p profile.TeacherProfile) (profile.TeacherProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.Subjects = copyStrings(p.Subjects)
	p.ClassLevels = copyStrings(p.ClassLevels)
	p.Availability.Days = copyStrings(p.Availability.Days)
	if orig, ok := repo.db.teachers[p.UserID]; ok {
		p.ID = orig.ID
		p.IsVerified = orig.IsVerified
		p.IsNIDVerified = orig.IsNIDVerified
		p.RatingAverage = orig.RatingAverage
		p.RatingCount = orig.RatingCount
		p.CreatedAt = orig.CreatedAt
	}
	repo.db.teachers[p.UserID] = &p
	return p, nil
}

func (repo *profileRepository) GetStudentProfile(_ context.Context, userID string) (profile.StudentProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.students[userID]; ok {
		return *p, nil
	}
	return profile.StudentProfile{}, profile.ErrStudentProfileNotFound
}

func (repo *profileRepository) GetTeacherProfile(_ context.Context, userID string) (profile.TeacherProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.teachers[userID]; ok {
		return *p, nil
	}
	return profile.TeacherProfile{}, profile.ErrTeacherProfileNotFound
}

func (repo *profileRepository) QueryStudentProfiles(_ context.Context, verified *bool) ([]profile.StudentProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]profile.StudentProfile, 0, len(repo.db.students))
	for _, p := range repo.db.students {
		if verified == nil || p.IsVerified == *verified {
			list = append(list, *p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *profileRepository) QueryTeacherProfiles(_ context.Context, filter profile.TeacherFilter) ([]profile.TeacherProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]profile.TeacherProfile, 0, len(repo.db.teachers))
	for _, p := range repo.db.teachers {
		if filter.Match(*p) {
			list = append(list, *p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if filter.ByRating {
			if a.RatingAverage != b.RatingAverage {
				return a.RatingAverage > b.RatingAverage
			}
			if a.RatingCount != b.RatingCount {
				return a.RatingCount > b.RatingCount
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (repo *profileRepository) UpdateStudentFlags(_ context.Context, p profile.StudentProfile) (profile.StudentProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[p.UserID]
	if !ok {
		return profile.StudentProfile{}, profile.ErrStudentProfileNotFound
	}
	orig.IsVerified = p.IsVerified
	orig.ParentControlEnabled = p.ParentControlEnabled
	orig.UpdatedAt = p.UpdatedAt
	return *orig, nil
}

func (repo *profileRepository) UpdateTeacherFlags(_ context.Context, p profile.TeacherProfile) (profile.TeacherProfile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.teachers[p.UserID]
	if !ok {
		return profile.TeacherProfile{}, profile.ErrTeacherProfileNotFound
	}
	orig.IsVerified = p.IsVerified
	orig.IsNIDVerified = p.IsNIDVerified
	orig.RatingAverage = p.RatingAverage
	orig.RatingCount = p.RatingCount
	orig.UpdatedAt = p.UpdatedAt
	return *orig, nil
}
