package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/session"
)

// =============================================================================
// Mock UserService
// =============================================================================

type mockUserService struct {
	RegisterFunc           func(ctx context.Context, params domain.RegisterParams) (*domain.AuthResult, error)
	LoginFunc              func(ctx context.Context, email, password string) (*domain.AuthResult, error)
	RefreshFunc            func(ctx context.Context, user *domain.User) (*domain.AuthResult, error)
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CompleteOnboardingFunc func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return nil, errors.New("RegisterFunc not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, errors.New("LoginFunc not implemented")
}

func (m *mockUserService) Refresh(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, user)
	}
	return nil, errors.New("RefreshFunc not implemented")
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented")
}

func (m *mockUserService) CompleteOnboarding(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.CompleteOnboardingFunc != nil {
		return m.CompleteOnboardingFunc(ctx, userID)
	}
	return nil, errors.New("CompleteOnboardingFunc not implemented")
}

// =============================================================================
// Helpers
// =============================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testAuthResult() *domain.AuthResult {
	return &domain.AuthResult{
		User: &domain.User{
			ID:       uuid.New(),
			Email:    "student@example.com",
			FullName: "Test Student",
		},
		Token:     "test-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

// =============================================================================
// Register Tests
// =============================================================================

func TestRegister_Success(t *testing.T) {
	svc := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.AuthResult, error) {
			if params.Email != "student@example.com" {
				t.Errorf("unexpected email: %s", params.Email)
			}
			return testAuthResult(), nil
		},
	}
	h := NewAuthHandler(svc, newTestLogger(), false)

	body := `{"email":"student@example.com","password":"supersecret","full_name":"Test Student"}`
	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["access_token"] != "test-token" {
		t.Errorf("expected access_token in response, got %v", resp["access_token"])
	}
	if resp["token_type"] != "bearer" {
		t.Errorf("expected token_type bearer, got %v", resp["token_type"])
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected session cookie to be set")
	}
	if cookie.Value != "test-token" {
		t.Errorf("cookie carries wrong token: %s", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestRegister_Conflict(t *testing.T) {
	svc := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.AuthResult, error) {
			return nil, domain.Conflict("UserService.Register", "An account with this email already exists")
		},
	}
	h := NewAuthHandler(svc, newTestLogger(), false)

	body := `{"email":"taken@example.com","password":"supersecret","full_name":"X"}`
	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Error("no session cookie should be set on failure")
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	h := NewAuthHandler(&mockUserService{}, newTestLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin_Success(t *testing.T) {
	svc := &mockUserService{
		LoginFunc: func(ctx context.Context, email, password string) (*domain.AuthResult, error) {
			return testAuthResult(), nil
		},
	}
	h := NewAuthHandler(svc, newTestLogger(), false)

	body := `{"email":"student@example.com","password":"supersecret"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if sessionCookie(rec) == nil {
		t.Error("expected session cookie to be set")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &mockUserService{
		LoginFunc: func(ctx context.Context, email, password string) (*domain.AuthResult, error) {
			return nil, domain.Unauthorized("UserService.Login", "Invalid email or password")
		},
	}
	h := NewAuthHandler(svc, newTestLogger(), false)

	body := `{"email":"student@example.com","password":"wrong"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Error("no session cookie should be set on failure")
	}
}

// =============================================================================
// Me / Refresh / Logout Tests
// =============================================================================

func TestMe_Authenticated(t *testing.T) {
	h := NewAuthHandler(&mockUserService{}, newTestLogger(), false)

	user := &domain.User{ID: uuid.New(), Email: "student@example.com", FullName: "Test Student"}
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "student@example.com") {
		t.Errorf("expected user email in response: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response must not mention passwords: %s", rec.Body.String())
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockUserService{}, newTestLogger(), false)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefresh_IssuesNewToken(t *testing.T) {
	result := testAuthResult()
	result.Token = "fresh-token"
	svc := &mockUserService{
		RefreshFunc: func(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
			return result, nil
		},
	}
	h := NewAuthHandler(svc, newTestLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/refresh", nil)
	req = req.WithContext(auth.SetUser(req.Context(), result.User))
	rec := httptest.NewRecorder()

	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value != "fresh-token" {
		t.Errorf("expected refreshed cookie, got %v", cookie)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockUserService{}, newTestLogger(), false)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected clearing cookie to be set")
	}
	if cookie.MaxAge != -1 {
		t.Errorf("expected MaxAge -1 to delete cookie, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("expected empty cookie value, got %q", cookie.Value)
	}
}
