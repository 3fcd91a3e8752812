// Package todo stores per-user task lists.
//
// Two Store implementations exist: an in-memory store for development and
// tests, and a Redis-backed store for deployments where todos must survive
// restarts and be shared across instances.
package todo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
)

// ErrNotFound is returned when a todo does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("todo not found")

// Store is the persistence contract for todos.
type Store interface {
	// Create saves a new todo and returns it with ID and timestamps set.
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)

	// Get retrieves one todo owned by the user.
	Get(ctx context.Context, userID, todoID uuid.UUID) (domain.Todo, error)

	// List returns the user's todos matching the filter, newest first.
	List(ctx context.Context, userID uuid.UUID, filter domain.TodoFilter) ([]domain.Todo, error)

	// Update applies a partial update and returns the updated todo.
	Update(ctx context.Context, userID, todoID uuid.UUID, params domain.TodoUpdateParams) (domain.Todo, error)

	// Toggle flips the completed flag and returns the updated todo.
	Toggle(ctx context.Context, userID, todoID uuid.UUID) (domain.Todo, error)

	// Delete removes a todo. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, userID, todoID uuid.UUID) error
}

// =============================================================================
// In-Memory Store
// =============================================================================

// MemoryStore keeps todos in process memory. Suitable for development and
// single-instance deployments where loss on restart is acceptable.
type MemoryStore struct {
	mu    sync.RWMutex
	todos map[uuid.UUID]map[uuid.UUID]domain.Todo // userID -> todoID -> todo
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		todos: make(map[uuid.UUID]map[uuid.UUID]domain.Todo),
	}
}

// Create saves a new todo.
func (s *MemoryStore) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	todo.ID = uuid.New()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	if s.todos[todo.UserID] == nil {
		s.todos[todo.UserID] = make(map[uuid.UUID]domain.Todo)
	}
	s.todos[todo.UserID][todo.ID] = todo

	return todo, nil
}

// Get retrieves one todo owned by the user.
func (s *MemoryStore) Get(ctx context.Context, userID, todoID uuid.UUID) (domain.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.todos[userID][todoID]
	if !ok {
		return domain.Todo{}, ErrNotFound
	}
	return todo, nil
}

// List returns the user's todos matching the filter, newest first.
func (s *MemoryStore) List(ctx context.Context, userID uuid.UUID, filter domain.TodoFilter) ([]domain.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]domain.Todo, 0, len(s.todos[userID]))
	for _, todo := range s.todos[userID] {
		if filter.Matches(todo) {
			todos = append(todos, todo)
		}
	}

	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})

	return todos, nil
}

// Update applies a partial update.
func (s *MemoryStore) Update(ctx context.Context, userID, todoID uuid.UUID, params domain.TodoUpdateParams) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[userID][todoID]
	if !ok {
		return domain.Todo{}, ErrNotFound
	}

	applyUpdate(&todo, params)
	s.todos[userID][todoID] = todo

	return todo, nil
}

// Toggle flips the completed flag.
func (s *MemoryStore) Toggle(ctx context.Context, userID, todoID uuid.UUID) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[userID][todoID]
	if !ok {
		return domain.Todo{}, ErrNotFound
	}

	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now()
	s.todos[userID][todoID] = todo

	return todo, nil
}

// Delete removes a todo.
func (s *MemoryStore) Delete(ctx context.Context, userID, todoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[userID][todoID]; !ok {
		return ErrNotFound
	}
	delete(s.todos[userID], todoID)
	return nil
}

// applyUpdate copies non-nil fields from params onto the todo and bumps
// UpdatedAt.
func applyUpdate(todo *domain.Todo, params domain.TodoUpdateParams) {
	if params.Title != nil {
		todo.Title = *params.Title
	}
	if params.Description != nil {
		todo.Description = *params.Description
	}
	if params.Completed != nil {
		todo.Completed = *params.Completed
	}
	if params.Priority != nil {
		todo.Priority = *params.Priority
	}
	if params.Category != nil {
		todo.Category = *params.Category
	}
	todo.UpdatedAt = time.Now()
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
