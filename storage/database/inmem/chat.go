package inmemdb

import (
	"context"
	"sort"

	"github.com/etarip26/EduConnect/core/chat"
)

type chatRepository struct {
	db *DB
}

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db}
}

func (repo *chatRepository) CreateRoom(_ context.Context, r chat.Room) (chat.Room, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.rooms {
		if existing.MatchID == r.MatchID {
			return chat.Room{}, chat.ErrRoomExists
		}
	}
	repo.db.rooms[r.ID] = &r
	return r, nil
}

func (repo *chatRepository) GetRoom(_ context.Context, id string) (chat.Room, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.rooms[id]; ok {
		return *r, nil
	}
	return chat.Room{}, chat.ErrRoomNotFound
}

func (repo *chatRepository) GetRoomByMatch(_ context.Context, matchID string) (chat.Room, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, r := range repo.db.rooms {
		if r.MatchID == matchID {
			return *r, nil
		}
	}
	return chat.Room{}, chat.ErrRoomNotFound
}

func (repo *chatRepository) ListRoomsByMember(_ context.Context, userID string) ([]chat.Room, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rooms := make([]chat.Room, 0)
	for _, r := range repo.db.rooms {
		if r.HasMember(userID) {
			rooms = append(rooms, *r)
		}
	}
	activity := func(r chat.Room) int64 {
		if r.LastMessageAt != nil {
			return r.LastMessageAt.UnixNano()
		}
		return r.UpdatedAt.UnixNano()
	}
	sort.SliceStable(rooms, func(i, j int) bool { return activity(rooms[i]) > activity(rooms[j]) })
	return rooms, nil
}

func (repo *chatRepository) CreateMessage(_ context.Context, m chat.Message) (chat.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r, ok := repo.db.rooms[m.RoomID]
	if !ok {
		return chat.Message{}, chat.ErrRoomNotFound
	}
	at := m.CreatedAt
	r.LastMessageAt = &at
	r.UpdatedAt = at
	repo.db.messages[m.ID] = &m
	return m, nil
}

func (repo *chatRepository) ListMessages(_ context.Context, roomID string) ([]chat.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]chat.Message, 0)
	for _, m := range repo.db.messages {
		if m.RoomID == roomID {
			msgs = append(msgs, *m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *chatRepository) MarkMessagesSeen(_ context.Context, roomID, readerID string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var count int
	for _, m := range repo.db.messages {
		if m.RoomID == roomID && m.SenderID != readerID && m.Status != chat.StatusSeen {
			m.Status = chat.StatusSeen
			count++
		}
	}
	return count, nil
}
