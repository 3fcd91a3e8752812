package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/service"
)

// CounsellorHandler handles the AI counsellor endpoints.
//
// Routes handled:
// - POST   /api/counsellor/chat                        -> Chat
// - GET    /api/counsellor/conversations               -> ListConversations
// - GET    /api/counsellor/conversations/{id}/messages -> GetMessages
// - DELETE /api/counsellor/conversations/{id}          -> DeleteConversation
// - GET    /api/counsellor/careers                     -> Careers
// - GET    /api/counsellor/courses                     -> Courses
type CounsellorHandler struct {
	counsellorService service.CounsellorService
	logger            *slog.Logger
}

// NewCounsellorHandler creates a new CounsellorHandler.
func NewCounsellorHandler(counsellorService service.CounsellorService, logger *slog.Logger) *CounsellorHandler {
	return &CounsellorHandler{
		counsellorService: counsellorService,
		logger:            logger,
	}
}

// =============================================================================
// Request / Response Types
// =============================================================================

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:        m.ID.String(),
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

type conversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:        c.ID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type chatResponse struct {
	Conversation conversationResponse `json:"conversation"`
	Reply        messageResponse      `json:"reply"`
}

// =============================================================================
// POST /api/counsellor/chat
// =============================================================================

// Chat runs one counselling turn. Omitting conversation_id starts a new
// conversation titled after the message.
func (h *CounsellorHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var conversationID *uuid.UUID
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid("CounsellorHandler.Chat", "Invalid conversation_id"))
			return
		}
		conversationID = &id
	}

	result, err := h.counsellorService.Chat(r.Context(), user.ID, conversationID, req.Message)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Conversation: newConversationResponse(result.Conversation),
		Reply:        newMessageResponse(result.Reply),
	})
}

// =============================================================================
// Conversation Management
// =============================================================================

// ListConversations returns the user's conversations, most recently active first.
func (h *CounsellorHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit := queryInt(r, "limit", 50)

	conversations, err := h.counsellorService.ListConversations(r.Context(), user.ID, int32(limit))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]conversationResponse, 0, len(conversations))
	for i := range conversations {
		out = append(out, newConversationResponse(&conversations[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": out,
		"count":         len(out),
	})
}

// GetMessages returns a conversation's messages, oldest first.
func (h *CounsellorHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	conversationID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	messages, err := h.counsellorService.GetMessages(r.Context(), user.ID, conversationID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, newMessageResponse(&messages[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": out,
		"count":    len(out),
	})
}

// DeleteConversation removes a conversation and its messages.
func (h *CounsellorHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	conversationID, err := pathUUID(r, "id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.counsellorService.DeleteConversation(r.Context(), user.ID, conversationID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Suggestions
// =============================================================================

// Careers returns AI-suggested career paths based on the user's profile.
func (h *CounsellorHandler) Careers(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	careers, err := h.counsellorService.SuggestCareerPaths(r.Context(), user.ID, queryInt(r, "limit", 0))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"careers": careers,
		"count":   len(careers),
	})
}

// Courses returns AI-suggested fields of study based on the user's profile.
func (h *CounsellorHandler) Courses(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	courses, err := h.counsellorService.RecommendCourses(r.Context(), user.ID, queryInt(r, "limit", 0))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"courses": courses,
		"count":   len(courses),
	})
}
