package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lodestar-edu/lodestar/internal/domain"
)

// Limiter is a fixed-window request counter keyed by client IP. Counters
// live in process memory, so the effective limit scales with the number of
// replicas behind a load balancer.
type Limiter struct {
	limit  int
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	windows map[string]*countWindow
}

type countWindow struct {
	hits      int
	startedAt time.Time
}

// NewLimiter allows limit requests per window for each key. A background
// sweep drops keys whose window has lapsed.
func NewLimiter(limit int, window time.Duration, logger *slog.Logger) *Limiter {
	l := &Limiter{
		limit:   limit,
		window:  window,
		logger:  logger,
		windows: make(map[string]*countWindow),
	}
	go l.sweep()
	return l
}

// take consumes one slot for key. When the request is denied it also
// reports how long until the window resets.
func (l *Limiter) take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w := l.windows[key]
	if w == nil || now.Sub(w.startedAt) > l.window {
		l.windows[key] = &countWindow{hits: 1, startedAt: now}
		return true, 0
	}
	if w.hits < l.limit {
		w.hits++
		return true, 0
	}
	return false, l.window - now.Sub(w.startedAt)
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.Sub(w.startedAt) > l.window {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// Handler rejects requests over the limit with 429, a Retry-After hint, and
// the standard JSON error envelope.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)

		ok, wait := l.take(ip)
		if !ok {
			l.logger.Warn("rate limit exceeded",
				"ip", ip,
				"path", r.URL.Path,
				"method", r.Method,
			)

			retryAfter := int(wait.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    domain.ERATELIMIT,
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthRateLimiter bundles the limiters for the credential endpoints.
// Login: 5 attempts per 15 minutes. Register: 3 per hour.
type AuthRateLimiter struct {
	login    *Limiter
	register *Limiter
}

func NewAuthRateLimiter(logger *slog.Logger) *AuthRateLimiter {
	return &AuthRateLimiter{
		login:    NewLimiter(5, 15*time.Minute, logger),
		register: NewLimiter(3, time.Hour, logger),
	}
}

// LimitLogin rate limits login attempts by client IP.
func (a *AuthRateLimiter) LimitLogin(next http.Handler) http.Handler {
	return a.login.Handler(next)
}

// LimitRegister rate limits registration attempts by client IP.
func (a *AuthRateLimiter) LimitRegister(next http.Handler) http.Handler {
	return a.register.Handler(next)
}

// getClientIP resolves the originating client address, trusting proxy
// headers when present.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For lists client, proxy1, proxy2; the first entry is the
	// original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
