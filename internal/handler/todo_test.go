package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/todo"
)

func authedRequest(method, target string, body string, user *domain.User) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.SetUser(req.Context(), user))
}

func TestTodoCreateAndList(t *testing.T) {
	store := todo.NewMemoryStore()
	h := NewTodoHandler(store, newTestLogger())
	user := &domain.User{ID: uuid.New(), Email: "student@example.com"}

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest("POST", "/api/todos", `{"title":"Book IELTS","priority":"high","category":"academic"}`, user))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created domain.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("response is not a todo: %v", err)
	}
	if created.Priority != domain.TodoPriorityHigh {
		t.Errorf("expected high priority, got %s", created.Priority)
	}

	rec = httptest.NewRecorder()
	h.List(rec, authedRequest("GET", "/api/todos", "", user))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listing struct {
		Todos []domain.Todo `json:"todos"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("listing is not JSON: %v", err)
	}
	if listing.Count != 1 || len(listing.Todos) != 1 {
		t.Fatalf("expected one todo, got %d", listing.Count)
	}
}

func TestTodoCreateValidation(t *testing.T) {
	h := NewTodoHandler(todo.NewMemoryStore(), newTestLogger())
	user := &domain.User{ID: uuid.New()}

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"category":"academic"}`},
		{"unknown priority", `{"title":"x","priority":"urgent"}`},
		{"unknown category", `{"title":"x","category":"sports"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, authedRequest("POST", "/api/todos", tt.body, user))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTodoToggleAndDelete(t *testing.T) {
	store := todo.NewMemoryStore()
	h := NewTodoHandler(store, newTestLogger())
	user := &domain.User{ID: uuid.New()}

	created, err := store.Create(context.Background(), domain.Todo{
		UserID:   user.ID,
		Title:    "Request transcripts",
		Priority: domain.TodoPriorityMedium,
		Category: domain.TodoCategoryApplication,
	})
	if err != nil {
		t.Fatal(err)
	}

	req := authedRequest("POST", "/api/todos/"+created.ID.String()+"/toggle", "", user)
	req.SetPathValue("id", created.ID.String())
	rec := httptest.NewRecorder()
	h.Toggle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var toggled domain.Todo
	if err := json.Unmarshal(rec.Body.Bytes(), &toggled); err != nil {
		t.Fatal(err)
	}
	if !toggled.Completed {
		t.Error("expected todo to be completed after toggle")
	}

	req = authedRequest("DELETE", "/api/todos/"+created.ID.String(), "", user)
	req.SetPathValue("id", created.ID.String())
	rec = httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// Deleting again reports not found
	req = authedRequest("DELETE", "/api/todos/"+created.ID.String(), "", user)
	req.SetPathValue("id", created.ID.String())
	rec = httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTodoRejectsUnauthenticated(t *testing.T) {
	h := NewTodoHandler(todo.NewMemoryStore(), newTestLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/todos", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTodoInvalidPathID(t *testing.T) {
	h := NewTodoHandler(todo.NewMemoryStore(), newTestLogger())
	user := &domain.User{ID: uuid.New()}

	req := authedRequest("GET", "/api/todos/not-a-uuid", "", user)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
