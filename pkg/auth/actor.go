// Package auth carries the caller identity forwarded by the API gateway.
// Authentication happens upstream; this service only decides whether the
// identified role may change booking state.
package auth

import "context"

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

type Actor struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Authorized bool   `json:"authorized"`
}

// Anonymous is the actor of a request without gateway identity headers.
var Anonymous = Actor{}

func (a Actor) IsAnonymous() bool {
	return a.ID == ""
}

type contextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

func FromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(contextKey{}).(Actor); ok {
		return actor
	}
	return Anonymous
}
