package match

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/user"
)

var (
	// errors
	ErrNotParty      = core.NewAuthorizationError("not a party to this match")
	ErrMatchInactive = core.NewAuthorizationError("match is not active")
	ErrParentControl = core.NewAuthorizationError("parent control is enabled for this student")
)

// ParentControls reports the per-student parent control flag.
type ParentControls interface {
	ParentControlEnabled(ctx context.Context, studentID string) (bool, error)
}

// Gate decides whether a party may use a capability of a match right now.
// Callers check it on every chat and demo action; decisions are never cached.
type Gate struct {
	parents ParentControls
}

func NewGate(parents ParentControls) *Gate {
	return &Gate{parents: parents}
}

// Check fails with an AuthorizationError unless `actor` is a party of the active match,
// the capability is unlocked and, for the student, parent control is off.
func (g *Gate) Check(ctx context.Context, m Match, actor user.User, c Capability) error {
	if !m.HasParty(actor.ID) {
		return ErrNotParty
	}
	if !m.IsActive() {
		return ErrMatchInactive
	}
	if !m.Allows(c) {
		return core.NewAuthorizationError(fmt.Sprintf("%s is disabled for this match", c))
	}
	if actor.ID == m.StudentID {
		enabled, err := g.parents.ParentControlEnabled(ctx, m.StudentID)
		if err != nil {
			return errors.Wrap(err, "checking parent control")
		}
		if enabled {
			return ErrParentControl
		}
	}
	return nil
}
