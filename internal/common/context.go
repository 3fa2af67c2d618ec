package common

import (
	"context"

	"userbase/internal/authz"
)

type contextKey string

const ActorKey contextKey = "actor"

// WithActor attaches the authenticated actor to the request context.
func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActorFromContext extracts the authenticated actor from the request context.
func GetActorFromContext(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(authz.Actor)
	return actor, ok
}
