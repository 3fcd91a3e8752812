package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/todo"
)

// TodoHandler handles the application-journey todo endpoints.
//
// Routes handled:
// - GET    /api/todos             -> List
// - POST   /api/todos             -> Create
// - GET    /api/todos/{id}        -> Get
// - PATCH  /api/todos/{id}        -> Update
// - POST   /api/todos/{id}/toggle -> Toggle
// - DELETE /api/todos/{id}        -> Delete
type TodoHandler struct {
	store  todo.Store
	logger *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(store todo.Store, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		store:  store,
		logger: logger,
	}
}

// =============================================================================
// Request Types
// =============================================================================

type todoCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
}

type todoUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

// List returns the user's todos, newest first.
//
// Query Parameters:
// - category (optional): academic, career, application, or general
// - completed (optional): "true" or "false"
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var filter domain.TodoFilter

	if raw := r.URL.Query().Get("category"); raw != "" {
		category := domain.TodoCategory(raw)
		if !category.Valid() {
			ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.List", "Unknown category"))
			return
		}
		filter.Category = &category
	}

	if raw := r.URL.Query().Get("completed"); raw != "" {
		completed := raw == "true"
		if raw != "true" && raw != "false" {
			ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.List", "completed must be true or false"))
			return
		}
		filter.Completed = &completed
	}

	todos, err := h.store.List(r.Context(), user.ID, filter)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"todos": todos,
		"count": len(todos),
	})
}

// Create adds a new todo for the user.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req todoCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if req.Title == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.Create", "Title is required"))
		return
	}

	priority := domain.TodoPriorityMedium
	if req.Priority != "" {
		priority = domain.TodoPriority(req.Priority)
		if !priority.Valid() {
			ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.Create", "Unknown priority"))
			return
		}
	}

	category := domain.TodoCategoryGeneral
	if req.Category != "" {
		category = domain.TodoCategory(req.Category)
		if !category.Valid() {
			ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.Create", "Unknown category"))
			return
		}
	}

	created, err := h.store.Create(r.Context(), domain.Todo{
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Category:    category,
	})
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get returns a single todo.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	item, err := h.store.Get(r.Context(), user.ID, id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Update applies a partial update to a todo.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req todoUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params := domain.TodoUpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}

	if req.Priority != nil {
		priority := domain.TodoPriority(*req.Priority)
		if !priority.Valid() {
			ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.Update", "Unknown priority"))
			return
		}
		params.Priority = &priority
	}

	if req.Category != nil {
		category := domain.TodoCategory(*req.Category)
		if !category.Valid() {
			ErrorResponse(w, r, h.logger, domain.Invalid("TodoHandler.Update", "Unknown category"))
			return
		}
		params.Category = &category
	}

	updated, err := h.store.Update(r.Context(), user.ID, id, params)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Toggle flips a todo's completed flag.
func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	toggled, err := h.store.Toggle(r.Context(), user.ID, id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toggled)
}

// Delete removes a todo.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.store.Delete(r.Context(), user.ID, id); err != nil {
		h.storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// storeError maps store errors onto API responses.
func (h *TodoHandler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, todo.ErrNotFound) {
		ErrorResponse(w, r, h.logger, domain.NotFound("", "Todo not found"))
		return
	}
	InternalErrorResponse(w, r, h.logger, err)
}
