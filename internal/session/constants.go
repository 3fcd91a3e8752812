// Package session holds shared constants for browser session handling.
package session

import "time"

const (
	// CookieName is the cookie that mirrors the bearer token for
	// browser navigation. The route guard checks its presence; API
	// middleware verifies its value.
	CookieName = "lodestar_token"

	// CookieMaxAge caps the cookie lifetime. The embedded token
	// expires on its own schedule regardless.
	CookieMaxAge = 7 * 24 * time.Hour
)
