package sessionsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Hour))
	require.NoError(t, s.Revoke(ctx, "jti-2", 0)) // expired tokens are not stored

	revoked, _ = s.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)
	revoked, _ = s.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = s.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-3", time.Minute))
	assert.Len(t, s.revoked, 1) // jti-1 purged
}
