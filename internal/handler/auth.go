// Package handler contains HTTP handlers for the Lodestar API.
//
// This file implements authentication handlers for registration, login,
// session introspection, token refresh, and logout.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/metrics"
	"github.com/lodestar-edu/lodestar/internal/service"
	"github.com/lodestar-edu/lodestar/internal/session"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// AuthHandler handles authentication-related HTTP requests.
//
// Routes handled:
// - POST /api/auth/register -> Register
// - POST /api/auth/login    -> Login
// - GET  /api/auth/me       -> Me
// - POST /api/auth/refresh  -> Refresh
// - POST /api/auth/logout   -> Logout
type AuthHandler struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
//
// Set isSecure to true in production so session cookies carry the Secure flag.
func NewAuthHandler(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

// =============================================================================
// Request / Response Types
// =============================================================================

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the OAuth2-style token envelope returned on register,
// login, and refresh.
type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

// userResponse is the public shape of a user. The password hash never
// leaves the service layer.
type userResponse struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                  u.ID.String(),
		Email:               u.Email,
		FullName:            u.FullName,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt,
	}
}

func newTokenResponse(result *domain.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        newUserResponse(result.User),
	}
}

// =============================================================================
// POST /api/auth/register
// =============================================================================

// Register creates a new user account and signs the user in.
//
// Responses:
// - 201 with a token envelope on success
// - 400 on validation failure
// - 409 when the email is already registered
//
// The token is also mirrored into the session cookie so the browser is
// signed in immediately after registering.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.UsersRegistered.Inc()
	session.SetCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusCreated, newTokenResponse(result))
}

// =============================================================================
// POST /api/auth/login
// =============================================================================

// Login authenticates a user with email and password.
//
// Responses:
// - 200 with a token envelope on success
// - 401 on unknown email or wrong password (indistinguishable by design)
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	session.SetCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusOK, newTokenResponse(result))
}

// =============================================================================
// GET /api/auth/me
// =============================================================================

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// =============================================================================
// POST /api/auth/refresh
// =============================================================================

// Refresh issues a fresh token for the authenticated user, extending the
// session without re-entering credentials.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	result, err := h.userService.Refresh(r.Context(), user)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	session.SetCookie(w, result.Token, h.isSecure)
	writeJSON(w, http.StatusOK, newTokenResponse(result))
}

// =============================================================================
// POST /api/auth/logout
// =============================================================================

// Logout clears the session cookie.
//
// Tokens are stateless, so the server keeps no session to destroy; API
// clients simply discard their copy. Logout always succeeds, even without
// a valid session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookie(w, h.isSecure)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
