package todo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps todos in a Redis hash per user, with each todo stored
// as a JSON field keyed by its ID. Cross-field operations (list, filter)
// read the whole hash; user todo lists are small enough that this beats
// maintaining secondary indexes.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// userKey is the hash holding all todos for one user.
func userKey(userID uuid.UUID) string {
	return "todos:" + userID.String()
}

// Create saves a new todo.
func (s *RedisStore) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	now := time.Now()
	todo.ID = uuid.New()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	if err := s.put(ctx, todo); err != nil {
		return domain.Todo{}, err
	}
	return todo, nil
}

// Get retrieves one todo owned by the user.
func (s *RedisStore) Get(ctx context.Context, userID, todoID uuid.UUID) (domain.Todo, error) {
	data, err := s.client.HGet(ctx, userKey(userID), todoID.String()).Result()
	if err == redis.Nil {
		return domain.Todo{}, ErrNotFound
	}
	if err != nil {
		return domain.Todo{}, fmt.Errorf("redis get todo: %w", err)
	}

	var todo domain.Todo
	if err := json.Unmarshal([]byte(data), &todo); err != nil {
		return domain.Todo{}, fmt.Errorf("decode todo: %w", err)
	}
	return todo, nil
}

// List returns the user's todos matching the filter, newest first.
func (s *RedisStore) List(ctx context.Context, userID uuid.UUID, filter domain.TodoFilter) ([]domain.Todo, error) {
	fields, err := s.client.HGetAll(ctx, userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list todos: %w", err)
	}

	todos := make([]domain.Todo, 0, len(fields))
	for _, data := range fields {
		var todo domain.Todo
		if err := json.Unmarshal([]byte(data), &todo); err != nil {
			return nil, fmt.Errorf("decode todo: %w", err)
		}
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
func (s *RedisStore) Update(ctx context.Context, userID, todoID uuid.UUID, params domain.TodoUpdateParams) (domain.Todo, error) {
	todo, err := s.Get(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}

	applyUpdate(&todo, params)

	if err := s.put(ctx, todo); err != nil {
		return domain.Todo{}, err
	}
	return todo, nil
}

// Toggle flips the completed flag.
func (s *RedisStore) Toggle(ctx context.Context, userID, todoID uuid.UUID) (domain.Todo, error) {
	todo, err := s.Get(ctx, userID, todoID)
	if err != nil {
		return domain.Todo{}, err
	}

	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now()

	if err := s.put(ctx, todo); err != nil {
		return domain.Todo{}, err
	}
	return todo, nil
}

// Delete removes a todo.
func (s *RedisStore) Delete(ctx context.Context, userID, todoID uuid.UUID) error {
	removed, err := s.client.HDel(ctx, userKey(userID), todoID.String()).Result()
	if err != nil {
		return fmt.Errorf("redis delete todo: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// put serializes and writes a todo into the user's hash.
func (s *RedisStore) put(ctx context.Context, todo domain.Todo) error {
	data, err := json.Marshal(todo)
	if err != nil {
		return fmt.Errorf("encode todo: %w", err)
	}
	if err := s.client.HSet(ctx, userKey(todo.UserID), todo.ID.String(), data).Err(); err != nil {
		return fmt.Errorf("redis put todo: %w", err)
	}
	return nil
}

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
