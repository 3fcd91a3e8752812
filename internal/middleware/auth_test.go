package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/session"
	"github.com/lodestar-edu/lodestar/internal/token"
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

func newTestTokenManager(t *testing.T) *token.Manager {
	t.Helper()
	mgr, err := token.NewManager("test-secret-key-at-least-32-chars!", time.Hour, "lodestar")
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	return mgr
}

// captureUser wraps a handler that records the context user.
func captureUser(got **domain.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = auth.GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// =============================================================================
// WithUser Tests
// =============================================================================

func TestWithUser_ValidBearerToken(t *testing.T) {
	tokens := newTestTokenManager(t)
	userID := uuid.New()
	user := &domain.User{ID: userID, Email: "student@example.com"}

	svc := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			if id != userID {
				t.Errorf("looked up wrong user: %s", id)
			}
			return user, nil
		},
	}

	tokenStr, _, err := tokens.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}

	mw := NewAuthMiddleware(tokens, svc, newTestLogger(), false)

	var got *domain.User
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	mw.WithUser(captureUser(&got)).ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.Email != "student@example.com" {
		t.Errorf("wrong user in context: %s", got.Email)
	}
}

func TestWithUser_ValidCookie(t *testing.T) {
	tokens := newTestTokenManager(t)
	userID := uuid.New()

	svc := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id}, nil
		},
	}

	tokenStr, _, err := tokens.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}

	mw := NewAuthMiddleware(tokens, svc, newTestLogger(), false)

	var got *domain.User
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tokenStr})
	rec := httptest.NewRecorder()

	mw.WithUser(captureUser(&got)).ServeHTTP(rec, req)

	if got == nil {
		t.Fatal("expected user in context from cookie token")
	}
}

func TestWithUser_NoToken(t *testing.T) {
	mw := NewAuthMiddleware(newTestTokenManager(t), &mockUserService{}, newTestLogger(), false)

	var got *domain.User
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	mw.WithUser(captureUser(&got)).ServeHTTP(rec, req)

	if got != nil {
		t.Error("expected no user in context")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("request should continue without a user, got %d", rec.Code)
	}
}

func TestWithUser_InvalidTokenClearsCookie(t *testing.T) {
	mw := NewAuthMiddleware(newTestTokenManager(t), &mockUserService{}, newTestLogger(), false)

	var got *domain.User
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()

	mw.WithUser(captureUser(&got)).ServeHTTP(rec, req)

	if got != nil {
		t.Error("expected no user for garbage token")
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge == -1 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected invalid cookie to be cleared")
	}
}

func TestWithUser_DeletedUserClearsCookie(t *testing.T) {
	tokens := newTestTokenManager(t)
	svc := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return nil, domain.NotFound("UserService.GetByID", "User not found")
		},
	}

	tokenStr, _, err := tokens.Issue(uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	mw := NewAuthMiddleware(tokens, svc, newTestLogger(), false)

	var got *domain.User
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tokenStr})
	rec := httptest.NewRecorder()

	mw.WithUser(captureUser(&got)).ServeHTTP(rec, req)

	if got != nil {
		t.Error("expected no user when the account is gone")
	}
}

func TestWithUser_MalformedAuthorizationHeaderDoesNotFallBack(t *testing.T) {
	tokens := newTestTokenManager(t)
	userID := uuid.New()
	svc := &mockUserService{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id}, nil
		},
	}

	tokenStr, _, err := tokens.Issue(userID)
	if err != nil {
		t.Fatal(err)
	}

	mw := NewAuthMiddleware(tokens, svc, newTestLogger(), false)

	var got *domain.User
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "NotBearer something")
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tokenStr})
	rec := httptest.NewRecorder()

	mw.WithUser(captureUser(&got)).ServeHTTP(rec, req)

	if got != nil {
		t.Error("malformed Authorization header must not fall back to the cookie")
	}
}

// =============================================================================
// RequireUser Tests
// =============================================================================

func TestRequireUser_APIRequestGets401(t *testing.T) {
	mw := NewAuthMiddleware(newTestTokenManager(t), &mockUserService{}, newTestLogger(), false)

	req := httptest.NewRequest("GET", "/api/todos", nil)
	rec := httptest.NewRecorder()

	mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error, got Content-Type %q", ct)
	}
}

func TestRequireUser_HTMLRequestRedirects(t *testing.T) {
	mw := NewAuthMiddleware(newTestTokenManager(t), &mockUserService{}, newTestLogger(), false)

	req := httptest.NewRequest("GET", "/dashboard?tab=matches", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if loc != "/login?return_to=/dashboard?tab=matches" {
		t.Errorf("unexpected redirect target: %q", loc)
	}
}

func TestRequireUser_AuthenticatedPassesThrough(t *testing.T) {
	mw := NewAuthMiddleware(newTestTokenManager(t), &mockUserService{}, newTestLogger(), false)

	user := &domain.User{ID: uuid.New()}
	req := httptest.NewRequest("GET", "/api/todos", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	var ran bool
	mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !ran {
		t.Fatal("handler should have run")
	}
}

// =============================================================================
// Stack Tests
// =============================================================================

func TestStack_Order(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	stack := Stack(mk("outer"), mk("middle"), mk("inner"))
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	stack(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})).ServeHTTP(rec, req)

	want := []string{"outer", "middle", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
