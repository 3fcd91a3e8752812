package middleware

import (
	"crypto/subtle"
	"net/http"
)

// MetricsAuth returns middleware that puts HTTP basic auth in front of the
// Prometheus endpoint. With both credentials empty the endpoint is left
// open, which is only acceptable behind a private network.
func MetricsAuth(username, password string) func(http.Handler) http.Handler {
	enabled := username != "" || password != ""

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if ok {
				// Constant-time comparison to prevent timing attacks
				userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
				passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
				if userOK && passOK {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}
