package middleware

import (
	"campusres/pkg/auth"
	"campusres/pkg/sanitizer"
	"net/http"
)

// RoleAuthorizer decides whether a role may change booking state.
type RoleAuthorizer func(role string) bool

// ActorContext attaches the gateway-forwarded identity to the request context.
// Requests without an actor id stay anonymous and unauthorized.
func ActorContext(canTransition RoleAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := auth.Actor{
				ID:   sanitizer.SanitizeIdentifier(r.Header.Get(auth.HeaderActorID)),
				Role: sanitizer.TrimAndNormalize(r.Header.Get(auth.HeaderActorRole)),
			}
			actor.Authorized = !actor.IsAnonymous() && canTransition != nil && canTransition(actor.Role)

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}
