package services

import (
	"context"

	"github.com/cppla/multiplex/models"
)

// Actor is the caller identity resolved for a request. The zero value is the
// anonymous actor.
type Actor struct {
	UserID      uint
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

// Anonymous returns the actor used when no valid identity was resolved.
func Anonymous() Actor { return Actor{} }

// ActorFromUser builds the actor for a stored user.
func ActorFromUser(u *models.User) Actor {
	return Actor{
		UserID:      u.ID,
		Username:    u.Username,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// IsAnonymous reports whether no identity is attached.
func (a Actor) IsAnonymous() bool { return a.UserID == 0 }

type actorKey struct{}

// WithActor attaches the actor to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the attached actor, or Anonymous.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Anonymous()
}
