// Package auth carries the authenticated user through the request context.
//
// It sits below both middleware and handler so either can import it without
// a cycle: middleware writes the user after verifying the bearer token,
// handlers read it.
package auth

import (
	"context"
	"net/http"

	"github.com/lodestar-edu/lodestar/internal/domain"
)

// contextKey is unexported so no other package can collide with our keys.
type contextKey struct{}

var userContextKey contextKey

// SetUser stores the verified user in the context. Called by the auth
// middleware only.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUser returns the authenticated user, or nil for anonymous requests.
func GetUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// GetUserFromRequest is GetUser on the request's context.
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}
