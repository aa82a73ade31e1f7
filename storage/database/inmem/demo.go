package inmemdb

import (
	"context"
	"sort"

	"github.com/etarip26/EduConnect/core/demo"
)

type demoRepository struct {
	db *DB
}

func NewDemoRepository(db *DB) demo.Repository {
	return &demoRepository{db: db}
}

func (repo *demoRepository) CreateDemoSession(_ context.Context, s demo.Session) (demo.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.demos[s.ID] = &s
	return s, nil
}

func (repo *demoRepository) GetDemoSession(_ context.Context, id string) (demo.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.demos[id]; ok {
		return *s, nil
	}
	return demo.Session{}, demo.ErrNotFound
}

func (repo *demoRepository) QueryDemoSessions(_ context.Context, filter demo.QueryFilter) ([]demo.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sessions := make([]demo.Session, 0)
	for _, s := range repo.db.demos {
		if filter.Match(*s) {
			sessions = append(sessions, *s)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *demoRepository) UpdateDemoSession(_ context.Context, s demo.Session) (demo.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.demos[s.ID]; !ok {
		return demo.Session{}, demo.ErrNotFound
	}
	repo.db.demos[s.ID] = &s
	return s, nil
}
