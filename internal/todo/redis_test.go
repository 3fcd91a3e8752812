package todo

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared conformance tests against both Store
// implementations.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()

			created, err := store.Create(ctx, domain.Todo{
				UserID:   userID,
				Title:    "Book IELTS test",
				Priority: domain.TodoPriorityHigh,
				Category: domain.TodoCategoryAcademic,
			})
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
			assert.False(t, created.CreatedAt.IsZero())

			got, err := store.Get(ctx, userID, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Book IELTS test", got.Title)
			assert.Equal(t, domain.TodoPriorityHigh, got.Priority)
		})
	}
}

func TestStoreGetWrongUser(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			created, err := store.Create(ctx, domain.Todo{
				UserID:   uuid.New(),
				Title:    "Request transcripts",
				Priority: domain.TodoPriorityMedium,
				Category: domain.TodoCategoryApplication,
			})
			require.NoError(t, err)

			// Another user must not see it
			_, err = store.Get(ctx, uuid.New(), created.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreListFilters(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()

			academic, err := store.Create(ctx, domain.Todo{
				UserID: userID, Title: "a", Priority: domain.TodoPriorityLow, Category: domain.TodoCategoryAcademic,
			})
			require.NoError(t, err)
			_, err = store.Create(ctx, domain.Todo{
				UserID: userID, Title: "b", Priority: domain.TodoPriorityLow, Category: domain.TodoCategoryCareer,
			})
			require.NoError(t, err)

			_, err = store.Toggle(ctx, userID, academic.ID)
			require.NoError(t, err)

			all, err := store.List(ctx, userID, domain.TodoFilter{})
			require.NoError(t, err)
			assert.Len(t, all, 2)

			cat := domain.TodoCategoryAcademic
			byCategory, err := store.List(ctx, userID, domain.TodoFilter{Category: &cat})
			require.NoError(t, err)
			require.Len(t, byCategory, 1)
			assert.Equal(t, "a", byCategory[0].Title)

			completed := true
			byCompleted, err := store.List(ctx, userID, domain.TodoFilter{Completed: &completed})
			require.NoError(t, err)
			require.Len(t, byCompleted, 1)
			assert.Equal(t, academic.ID, byCompleted[0].ID)
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()

			created, err := store.Create(ctx, domain.Todo{
				UserID: userID, Title: "old", Priority: domain.TodoPriorityLow, Category: domain.TodoCategoryGeneral,
			})
			require.NoError(t, err)

			newTitle := "new"
			newPriority := domain.TodoPriorityHigh
			updated, err := store.Update(ctx, userID, created.ID, domain.TodoUpdateParams{
				Title:    &newTitle,
				Priority: &newPriority,
			})
			require.NoError(t, err)
			assert.Equal(t, "new", updated.Title)
			assert.Equal(t, domain.TodoPriorityHigh, updated.Priority)
			// Untouched fields survive
			assert.Equal(t, domain.TodoCategoryGeneral, updated.Category)

			_, err = store.Update(ctx, userID, uuid.New(), domain.TodoUpdateParams{Title: &newTitle})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreToggle(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()

			created, err := store.Create(ctx, domain.Todo{
				UserID: userID, Title: "t", Priority: domain.TodoPriorityLow, Category: domain.TodoCategoryGeneral,
			})
			require.NoError(t, err)
			assert.False(t, created.Completed)

			toggled, err := store.Toggle(ctx, userID, created.ID)
			require.NoError(t, err)
			assert.True(t, toggled.Completed)

			toggled, err = store.Toggle(ctx, userID, created.ID)
			require.NoError(t, err)
			assert.False(t, toggled.Completed)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New()

			created, err := store.Create(ctx, domain.Todo{
				UserID: userID, Title: "t", Priority: domain.TodoPriorityLow, Category: domain.TodoCategoryGeneral,
			})
			require.NoError(t, err)

			require.NoError(t, store.Delete(ctx, userID, created.ID))

			_, err = store.Get(ctx, userID, created.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, store.Delete(ctx, userID, created.ID), ErrNotFound)
		})
	}
}
