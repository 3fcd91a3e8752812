package middleware

import (
	"net/http"
	"strings"

	"github.com/lodestar-edu/lodestar/internal/session"
)

// =============================================================================
// Route Guard
// =============================================================================

// RouteGuard redirects browser navigation based on the presence of the
// session cookie, before any handler runs.
//
// The guard never verifies the token. Presence is enough to route the
// browser optimistically; a stale or forged cookie fails at the first API
// call, where verification actually happens. This keeps the guard free of
// secret material and makes it impossible for it to error.
//
// Rules:
//   - A protected path without a cookie redirects to the login page.
//     Protected paths match by path-segment prefix, so "/profile" covers
//     "/profile/edit".
//   - An auth page (login/signup) with a cookie redirects to the landing
//     page, since the visitor already appears signed in. Auth pages match
//     exactly; "/login/help" is not an auth page.
//   - Everything else passes through untouched.
type RouteGuard struct {
	protectedPaths []string
	authPaths      []string
	loginPath      string
	landingPath    string
}

// NewRouteGuard creates a route guard.
func NewRouteGuard(protectedPaths, authPaths []string, loginPath, landingPath string) *RouteGuard {
	return &RouteGuard{
		protectedPaths: protectedPaths,
		authPaths:      authPaths,
		loginPath:      loginPath,
		landingPath:    landingPath,
	}
}

// Handler returns middleware that applies the guard rules.
func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasToken := hasSessionCookie(r)
		path := r.URL.Path

		if !hasToken && matchesPrefix(path, g.protectedPaths) {
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}

		if hasToken && matchesExact(path, g.authPaths) {
			http.Redirect(w, r, g.landingPath, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// hasSessionCookie reports whether the request carries a non-empty session
// cookie. The value is never inspected.
func hasSessionCookie(r *http.Request) bool {
	cookie, err := r.Cookie(session.CookieName)
	return err == nil && cookie.Value != ""
}

// matchesExact reports whether path equals one of the given paths.
func matchesExact(path string, paths []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}

// matchesPrefix reports whether path falls under any of the given prefixes.
// A prefix matches exactly or at a path-segment boundary, so "/profile"
// covers "/profile" and "/profile/edit" but not "/profiles".
func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix {
			return true
		}
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) && path[len(prefix)] == '/' {
			return true
		}
	}
	return false
}
