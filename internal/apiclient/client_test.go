package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lodestar-edu/lodestar/internal/domain"
)

// recordingNavigator counts redirects and remembers the last target.
type recordingNavigator struct {
	mu    sync.Mutex
	calls int
	last  string
}

func (n *recordingNavigator) NavigateTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.last = path
}

func (n *recordingNavigator) snapshot() (int, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls, n.last
}

func writeSession(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   time.Now().Add(time.Hour),
		"user": map[string]any{
			"id":        "4dc8b3a6-0000-0000-0000-000000000001",
			"email":     "amira@example.com",
			"full_name": "Amira",
		},
	})
}

func TestAttachesBearerHeader(t *testing.T) {
	var gotAuth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		writeSession(w, "unused")
	}))
	defer server.Close()

	client := New(server.URL)
	client.store.Set("tok-123")

	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me() error = %v", err)
	}

	if len(gotAuth) != 1 {
		t.Fatalf("Authorization headers = %d, want exactly 1", len(gotAuth))
	}
	if gotAuth[0] != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth[0], "Bearer tok-123")
	}
}

func TestNoTokenSendsUnauthenticated(t *testing.T) {
	var gotAuth string
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, present = r.Header["Authorization"]
		writeSession(w, "unused")
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me() error = %v", err)
	}

	if present {
		t.Errorf("Authorization header sent without a stored token: %q", gotAuth)
	}
}

func TestLoginStoresTokenForNextRequest(t *testing.T) {
	var meAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeSession(w, "issued-token")
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meAuth = r.Header.Get("Authorization")
		writeSession(w, "unused")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := New(server.URL)

	session, err := client.Login(context.Background(), "amira@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.AccessToken != "issued-token" {
		t.Fatalf("AccessToken = %q, want %q", session.AccessToken, "issued-token")
	}

	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if meAuth != "Bearer issued-token" {
		t.Errorf("next request Authorization = %q, want token carried unchanged", meAuth)
	}
}

func TestUnauthorizedClearsTokenAndRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"Token has expired"}}`))
	}))
	defer server.Close()

	nav := &recordingNavigator{}
	client := New(server.URL, WithNavigator(nav))
	client.store.Set("stale-token")

	_, err := client.Profile(context.Background())
	if err == nil {
		t.Fatal("Profile() error = nil, want unauthorized error")
	}
	if code := domain.ErrorCode(err); code != domain.EUNAUTHORIZED {
		t.Errorf("error code = %q, want %q", code, domain.EUNAUTHORIZED)
	}

	if got := client.Token(); got != "" {
		t.Errorf("stored token = %q, want cleared", got)
	}

	calls, last := nav.snapshot()
	if calls != 1 {
		t.Errorf("navigator calls = %d, want 1", calls)
	}
	if last != DefaultLoginPath {
		t.Errorf("navigated to %q, want %q", last, DefaultLoginPath)
	}
}

func TestConcurrentUnauthorizedRedirectsOnce(t *testing.T) {
	var release sync.WaitGroup
	release.Add(1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release.Wait() // hold all requests so the 401s land together
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	nav := &recordingNavigator{}
	client := New(server.URL, WithNavigator(nav))
	client.store.Set("stale-token")

	const inflight = 8
	var wg sync.WaitGroup
	var failures atomic.Int64
	for range inflight {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Me(context.Background()); err != nil {
				failures.Add(1)
			}
		}()
	}
	release.Done()
	wg.Wait()

	if failures.Load() != inflight {
		t.Errorf("failed calls = %d, want all %d to reject", failures.Load(), inflight)
	}
	if calls, _ := nav.snapshot(); calls != 1 {
		t.Errorf("navigator calls = %d, want exactly 1 for concurrent 401s", calls)
	}
	if got := client.Token(); got != "" {
		t.Errorf("stored token = %q, want cleared", got)
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	nav := &recordingNavigator{}
	client := New(server.URL, WithNavigator(nav))
	client.store.Set("tok-123")

	_, err := client.Me(context.Background())
	if err == nil {
		t.Fatal("Me() error = nil, want transport error")
	}
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		t.Errorf("transport error was wrapped as %v, want it passed through", domainErr)
	}

	// Transport failure is not an authorization failure.
	if got := client.Token(); got != "tok-123" {
		t.Errorf("stored token = %q, want untouched", got)
	}
	if calls, _ := nav.snapshot(); calls != 0 {
		t.Errorf("navigator calls = %d, want 0", calls)
	}
}

func TestErrorEnvelopePreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"conflict","message":"An account with this email already exists"}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Register(context.Background(), RegisterParams{
		Email:    "amira@example.com",
		Password: "hunter22",
		FullName: "Amira",
	})
	if err == nil {
		t.Fatal("Register() error = nil, want conflict")
	}
	if code := domain.ErrorCode(err); code != domain.ECONFLICT {
		t.Errorf("error code = %q, want %q", code, domain.ECONFLICT)
	}
	if msg := domain.ErrorMessage(err); msg != "An account with this email already exists" {
		t.Errorf("error message = %q, want server message preserved", msg)
	}
}

func TestErrorWithoutEnvelopeMapsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.GetTodo(context.Background(), "4dc8b3a6-0000-0000-0000-000000000002")
	if err == nil {
		t.Fatal("GetTodo() error = nil, want not found")
	}
	if code := domain.ErrorCode(err); code != domain.ENOTFOUND {
		t.Errorf("error code = %q, want %q", code, domain.ENOTFOUND)
	}
}

func TestLogoutDiscardsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"logged_out"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	client.store.Set("tok-123")

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if got := client.Token(); got != "" {
		t.Errorf("stored token = %q, want cleared after logout", got)
	}
}

func TestDeleteHandlesNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL)
	client.store.Set("tok-123")

	if err := client.DeleteTodo(context.Background(), "4dc8b3a6-0000-0000-0000-000000000002"); err != nil {
		t.Fatalf("DeleteTodo() error = %v", err)
	}
}

func TestMemoryStoreClearReportsTransition(t *testing.T) {
	store := NewMemoryStore()
	if store.Clear() {
		t.Error("Clear() on empty store = true, want false")
	}

	store.Set("tok-123")
	if !store.Clear() {
		t.Error("Clear() with token = false, want true")
	}
	if store.Clear() {
		t.Error("second Clear() = true, want false")
	}
}
