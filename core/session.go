package core

import (
	"context"
	"time"
)

// SessionStore remembers revoked access tokens (by jti) until they expire on their own.
type SessionStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
