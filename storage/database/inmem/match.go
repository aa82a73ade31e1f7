package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/etarip26/EduConnect/core/match"
)

type matchRepository struct {
	db *DB
}

func NewMatchRepository(db *DB) match.Repository {
	return &matchRepository{db: db}
}

func (repo *matchRepository) GetMatch(_ context.Context, id string) (match.Match, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.matches[id]; ok {
		return *m, nil
	}
	return match.Match{}, match.ErrNotFound
}

func (repo *matchRepository) QueryMatches(_ context.Context, filter match.QueryFilter) ([]match.Match, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]match.Match, 0)
	for _, m := range repo.db.matches {
		if filter.Match(*m) {
			matches = append(matches, *m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })
	return matches, nil
}

func (repo *matchRepository) EndMatch(_ context.Context, id string, at time.Time) (match.Match, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m, ok := repo.db.matches[id]
	if !ok {
		return match.Match{}, match.ErrNotFound
	}
	if !m.IsActive() {
		return match.Match{}, match.ErrAlreadyEnded
	}
	m.Status = match.StatusEnded
	m.EndedAt = &at
	m.UpdatedAt = at
	return *m, nil
}

func (repo *matchRepository) UpdateMatchCapabilities(_ context.Context, id string, chat, demo bool) (match.Match, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m, ok := repo.db.matches[id]
	if !ok {
		return match.Match{}, match.ErrNotFound
	}
	m.IsChatAllowed = chat
	m.IsDemoAllowed = demo
	m.UpdatedAt = nowUTC()
	return *m, nil
}
