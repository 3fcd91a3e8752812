package domain

import (
	"time"

	"github.com/google/uuid"
)

// TodoPriority is the urgency bucket for a todo item.
type TodoPriority string

const (
	TodoPriorityLow    TodoPriority = "low"
	TodoPriorityMedium TodoPriority = "medium"
	TodoPriorityHigh   TodoPriority = "high"
)

// Valid checks if the priority is a known value.
func (p TodoPriority) Valid() bool {
	switch p {
	case TodoPriorityLow, TodoPriorityMedium, TodoPriorityHigh:
		return true
	default:
		return false
	}
}

// TodoCategory groups todos by the part of the application journey they
// belong to.
type TodoCategory string

const (
	TodoCategoryAcademic    TodoCategory = "academic"
	TodoCategoryCareer      TodoCategory = "career"
	TodoCategoryApplication TodoCategory = "application"
	TodoCategoryGeneral     TodoCategory = "general"
)

// Valid checks if the category is a known value.
func (c TodoCategory) Valid() bool {
	switch c {
	case TodoCategoryAcademic, TodoCategoryCareer, TodoCategoryApplication, TodoCategoryGeneral:
		return true
	default:
		return false
	}
}

// Todo is a user task item (e.g., "request transcripts", "book IELTS").
type Todo struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Completed   bool         `json:"completed"`
	Priority    TodoPriority `json:"priority"`
	Category    TodoCategory `json:"category"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TodoFilter narrows a todo listing. Nil fields mean "no constraint".
type TodoFilter struct {
	Category  *TodoCategory
	Completed *bool
}

// Matches reports whether the todo satisfies the filter.
func (f TodoFilter) Matches(t Todo) bool {
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	return true
}

// TodoUpdateParams carries a partial todo update. Nil fields are left
// untouched.
type TodoUpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *TodoPriority
	Category    *TodoCategory
}
