package sessionsvc

import (
	"context"
	"sync"
	"time"

	"github.com/etarip26/EduConnect/core"
)

// MemoryStore is a single-process SessionStore used when no Redis address is configured.
type MemoryStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time // {jti: expiry}
	now     func() time.Time
}

var _ core.SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purge()
	s.revoked[jti] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[jti]
	return ok && s.now().Before(exp), nil
}

// purge drops expired entries; callers hold the lock.
func (s *MemoryStore) purge() {
	now := s.now()
	for jti, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, jti)
		}
	}
}
