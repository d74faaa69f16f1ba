// internal/auth/context.go
//
// Actor helpers.
//
// Usage
// -----
//
//	// Attach the verified actor to the request context.
//	ctx = auth.WithActor(ctx, &auth.Actor{UserID: "u-17", TenantID: "mueller"})
//
//	// Downstream code retrieves it.
//	a, ok := auth.ActorFrom(ctx)
//
// Notes
// -----
//   - The actor is derived from a verified bearer token only.  Handlers
//     must never take a tenant id from the request body or query when an
//     actor is present.
//   - Oxford commas, two spaces after periods.
package auth

import "context"

// Actor is the authenticated dashboard user.
type Actor struct {
	UserID   string
	TenantID string
	Roles    []string
}

// HasRole reports whether the actor carries role.
func (a *Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// actorKey is unexported to avoid context-key collisions.
type actorKey struct{}

// WithActor returns a new context carrying a.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom extracts the actor from ctx.  It returns (nil, false) if none
// is set.
func ActorFrom(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(*Actor)
	return a, ok && a != nil
}
