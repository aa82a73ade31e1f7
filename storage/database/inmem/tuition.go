package inmemdb

import (
	"context"
	"sort"

	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/tuition"
)

type tuitionRepository struct {
	db *DB
}

func NewTuitionRepository(db *DB) tuition.Repository {
	return &tuitionRepository{db: db}
}

func (repo *tuitionRepository) CreatePost(_ context.Context, p tuition.Post) (tuition.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.Subjects = copyStrings(p.Subjects)
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *tuitionRepository) GetPost(_ context.Context, id string) (tuition.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.posts[id]; ok {
		return *p, nil
	}
	return tuition.Post{}, tuition.ErrPostNotFound
}

func (repo *tuitionRepository) QueryPosts(_ context.Context, filter tuition.PostFilter) ([]tuition.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]tuition.Post, 0)
	for _, p := range repo.db.posts {
		if filter.Match(*p) {
			posts = append(posts, *p)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (repo *tuitionRepository) UpdatePost(_ context.Context, p tuition.Post) (tuition.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[p.ID]; !ok {
		return tuition.Post{}, tuition.ErrPostNotFound
	}
	p.Subjects = copyStrings(p.Subjects)
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *tuitionRepository) CreateApplication(_ context.Context, a tuition.Application) (tuition.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.applications {
		if existing.PostID == a.PostID && existing.TeacherID == a.TeacherID {
			return tuition.Application{}, tuition.ErrAlreadyApplied
		}
	}
	repo.db.applications[a.ID] = &a
	return a, nil
}

func (repo *tuitionRepository) GetApplication(_ context.Context, id string) (tuition.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.applications[id]; ok {
		return *a, nil
	}
	return tuition.Application{}, tuition.ErrApplicationNotFound
}

func (repo *tuitionRepository) QueryApplications(_ context.Context, filter tuition.ApplicationFilter) ([]tuition.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]tuition.Application, 0)
	for _, a := range repo.db.applications {
		if filter.Match(*a) {
			apps = append(apps, *a)
		}
	}
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	return apps, nil
}

func (repo *tuitionRepository) TransitionApplication(_ context.Context, id, from, to, reason string) (tuition.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.applications[id]
	if !ok {
		return tuition.Application{}, tuition.ErrApplicationNotFound
	}
	if a.Status != from {
		return tuition.Application{}, tuition.ErrInvalidTransition
	}
	a.Status = to
	a.RejectionReason = reason
	a.UpdatedAt = nowUTC()
	return *a, nil
}

func (repo *tuitionRepository) AcceptApplication(_ context.Context, appID string, m match.Match) (tuition.Application, []tuition.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.applications[appID]
	if !ok {
		return tuition.Application{}, nil, tuition.ErrApplicationNotFound
	}
	if a.Status != tuition.AppAdminApproved {
		return tuition.Application{}, nil, tuition.ErrInvalidTransition
	}
	for _, existing := range repo.db.matches {
		if existing.ApplicationID == appID {
			return tuition.Application{}, nil, tuition.ErrInvalidTransition
		}
	}
	p, ok := repo.db.posts[a.PostID]
	if !ok {
		return tuition.Application{}, nil, tuition.ErrPostNotFound
	}
	if p.IsClosed {
		return tuition.Application{}, nil, tuition.ErrPostClosed
	}

	now := nowUTC()
	a.Status = tuition.AppAccepted
	a.UpdatedAt = now

	rejected := make([]tuition.Application, 0)
	for _, sib := range repo.db.applications {
		if sib.PostID != a.PostID || sib.ID == a.ID || sib.Status == tuition.AppRejected {
			continue
		}
		sib.Status = tuition.AppRejected
		sib.UpdatedAt = now
		rejected = append(rejected, *sib)
	}

	p.IsClosed = true
	p.UpdatedAt = now
	repo.db.matches[m.ID] = &m
	return *a, rejected, nil
}
