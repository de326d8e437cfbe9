package auth

import (
	"context"

	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

type contextKey struct{}

var actorKey = contextKey{}

// WithActor returns a context carrying the given actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the actor from the context. A missing actor is
// an Unauthorized error; the core treats identity as a precondition.
func ActorFromContext(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok {
		return Actor{}, pkgerrors.Unauthorized("no authenticated caller in context")
	}
	return actor, nil
}
