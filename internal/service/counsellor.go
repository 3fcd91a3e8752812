package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/ai"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/metrics"
	"github.com/lodestar-edu/lodestar/internal/repository"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// maxHistoryMessages caps how many prior turns are replayed to the AI
	// provider on each chat request. Older turns fall out of the window.
	maxHistoryMessages = 10

	// maxConversationTitleLength bounds titles derived from the first message.
	maxConversationTitleLength = 60

	// maxMessageLength rejects unreasonably long chat messages before they
	// reach the AI provider.
	maxMessageLength = 4000

	// defaultSuggestionCount is how many careers/courses to request when the
	// caller does not say.
	defaultSuggestionCount = 5
)

// =============================================================================
// Interface Definition
// =============================================================================

// ChatResult bundles the conversation a chat turn landed in with the
// assistant's reply.
type ChatResult struct {
	Conversation *domain.Conversation
	Reply        *domain.Message
}

// CounsellorService exposes the AI counselling features: conversational chat
// with persistent history, plus one-shot career and course suggestions.
type CounsellorService interface {
	// Chat runs one counselling turn. A nil conversationID starts a new
	// conversation titled after the message; otherwise the turn is appended
	// to the existing conversation, which must belong to the user.
	Chat(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, message string) (*ChatResult, error)

	// ListConversations returns the user's conversations, most recently
	// active first.
	ListConversations(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Conversation, error)

	// GetMessages returns a conversation's messages, oldest first.
	// Returns domain.ENOTFOUND if the conversation is not the user's.
	GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error

	// SuggestCareerPaths proposes career options based on the user's profile.
	SuggestCareerPaths(ctx context.Context, userID uuid.UUID, maxResults int) ([]domain.CareerOption, error)

	// RecommendCourses proposes fields of study based on the user's profile.
	RecommendCourses(ctx context.Context, userID uuid.UUID, maxResults int) ([]domain.CourseOption, error)
}

// =============================================================================
// Implementation
// =============================================================================

type counsellorService struct {
	queries    *repository.Queries
	counsellor ai.Counsellor
	logger     *slog.Logger
}

// NewCounsellorService creates a new CounsellorService instance.
func NewCounsellorService(queries *repository.Queries, counsellor ai.Counsellor, logger *slog.Logger) CounsellorService {
	return &counsellorService{
		queries:    queries,
		counsellor: counsellor,
		logger:     logger,
	}
}

// Chat runs one counselling turn.
//
// Flow:
// 1. Validate the message
// 2. Resolve the conversation (create one titled after the message if new)
// 3. Replay recent history and call the AI provider
// 4. Persist the user message and the assistant reply
// 5. Bump the conversation's activity timestamp
//
// The provider call happens before anything is persisted, so a failed AI
// request leaves no half-written turn behind.
func (s *counsellorService) Chat(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, message string) (*ChatResult, error) {
	const op = "CounsellorService.Chat"

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.Invalid(op, "Message is required")
	}
	if len(message) > maxMessageLength {
		return nil, domain.Invalid(op, "Message is too long")
	}

	conv, history, err := s.resolveConversation(ctx, op, userID, conversationID, message)
	if err != nil {
		return nil, err
	}

	profile := s.loadProfile(ctx, userID)

	result, err := s.counsellor.Chat(ctx, ai.ChatParams{
		Message: message,
		History: history,
		Profile: profile,
		UserID:  userID,
	})
	if err != nil {
		metrics.AIAPICalls.WithLabelValues("failure").Inc()
		return nil, aiErrorToDomain(op, err)
	}
	recordAIUsage(result.Usage)

	if _, err := s.queries.CreateMessage(ctx, repository.CreateMessageParams{
		ConversationID: conv.ID,
		Role:           string(domain.MessageRoleUser),
		Content:        message,
	}); err != nil {
		return nil, domain.Internal(err, op, "Failed to save message")
	}

	replyRow, err := s.queries.CreateMessage(ctx, repository.CreateMessageParams{
		ConversationID: conv.ID,
		Role:           string(domain.MessageRoleAssistant),
		Content:        result.Reply,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save reply")
	}

	if err := s.queries.TouchConversation(ctx, conv.ID); err != nil {
		// The turn is already saved; a stale updated_at only affects list
		// ordering, so log and continue.
		s.logger.Warn("failed to touch conversation", "conversation_id", conv.ID, "error", err)
	}

	s.logger.Info("chat turn completed",
		"user_id", userID,
		"conversation_id", conv.ID,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)

	return &ChatResult{
		Conversation: conv,
		Reply:        repoMessageToDomain(replyRow),
	}, nil
}

// ListConversations returns the user's conversations, most recent first.
func (s *counsellorService) ListConversations(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Conversation, error) {
	const op = "CounsellorService.ListConversations"

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.queries.ListUserConversations(ctx, repository.ListUserConversationsParams{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list conversations")
	}

	conversations := make([]domain.Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, *repoConversationToDomain(row))
	}
	return conversations, nil
}

// GetMessages returns a conversation's messages, oldest first.
func (s *counsellorService) GetMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	const op = "CounsellorService.GetMessages"

	// Ownership check before reading messages.
	if _, err := s.queries.GetConversation(ctx, repository.GetConversationParams{
		ID:     conversationID,
		UserID: userID,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Conversation not found")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve conversation")
	}

	rows, err := s.queries.ListConversationMessages(ctx, repository.ListConversationMessagesParams{
		ConversationID: conversationID,
		Limit:          500,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list messages")
	}

	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, *repoMessageToDomain(row))
	}
	return messages, nil
}

// DeleteConversation removes a conversation and its messages.
func (s *counsellorService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	const op = "CounsellorService.DeleteConversation"

	// Verify ownership first so a delete of someone else's conversation
	// reports not-found instead of silently succeeding.
	if _, err := s.queries.GetConversation(ctx, repository.GetConversationParams{
		ID:     conversationID,
		UserID: userID,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "Conversation not found")
		}
		return domain.Internal(err, op, "Failed to retrieve conversation")
	}

	if err := s.queries.DeleteConversation(ctx, repository.DeleteConversationParams{
		ID:     conversationID,
		UserID: userID,
	}); err != nil {
		return domain.Internal(err, op, "Failed to delete conversation")
	}

	s.logger.Info("conversation deleted", "user_id", userID, "conversation_id", conversationID)

	return nil
}

// SuggestCareerPaths proposes career options based on the user's profile.
func (s *counsellorService) SuggestCareerPaths(ctx context.Context, userID uuid.UUID, maxResults int) ([]domain.CareerOption, error) {
	const op = "CounsellorService.SuggestCareerPaths"

	profile, err := s.requireProfile(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = defaultSuggestionCount
	}

	result, err := s.counsellor.SuggestCareerPaths(ctx, ai.ProfileParams{
		Profile:    profile,
		MaxResults: maxResults,
		UserID:     userID,
	})
	if err != nil {
		metrics.AIAPICalls.WithLabelValues("failure").Inc()
		return nil, aiErrorToDomain(op, err)
	}
	recordAIUsage(result.Usage)

	return result.Careers, nil
}

// RecommendCourses proposes fields of study based on the user's profile.
func (s *counsellorService) RecommendCourses(ctx context.Context, userID uuid.UUID, maxResults int) ([]domain.CourseOption, error) {
	const op = "CounsellorService.RecommendCourses"

	profile, err := s.requireProfile(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = defaultSuggestionCount
	}

	result, err := s.counsellor.RecommendCourses(ctx, ai.ProfileParams{
		Profile:    profile,
		MaxResults: maxResults,
		UserID:     userID,
	})
	if err != nil {
		metrics.AIAPICalls.WithLabelValues("failure").Inc()
		return nil, aiErrorToDomain(op, err)
	}
	recordAIUsage(result.Usage)

	return result.Courses, nil
}

// =============================================================================
// Helpers
// =============================================================================

// resolveConversation loads the target conversation and its recent history,
// or creates a new conversation titled after the first message.
func (s *counsellorService) resolveConversation(ctx context.Context, op string, userID uuid.UUID, conversationID *uuid.UUID, message string) (*domain.Conversation, []domain.ChatTurn, error) {
	if conversationID == nil {
		row, err := s.queries.CreateConversation(ctx, repository.CreateConversationParams{
			UserID: userID,
			Title:  deriveTitle(message),
		})
		if err != nil {
			return nil, nil, domain.Internal(err, op, "Failed to create conversation")
		}
		return repoConversationToDomain(row), nil, nil
	}

	row, err := s.queries.GetConversation(ctx, repository.GetConversationParams{
		ID:     *conversationID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound(op, "Conversation not found")
		}
		return nil, nil, domain.Internal(err, op, "Failed to retrieve conversation")
	}

	msgRows, err := s.queries.ListConversationMessages(ctx, repository.ListConversationMessagesParams{
		ConversationID: row.ID,
		Limit:          500,
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to load conversation history")
	}

	return repoConversationToDomain(row), historyWindow(msgRows), nil
}

// historyWindow converts message rows into chat turns, keeping only the most
// recent maxHistoryMessages of them.
func historyWindow(rows []repository.Message) []domain.ChatTurn {
	if len(rows) > maxHistoryMessages {
		rows = rows[len(rows)-maxHistoryMessages:]
	}

	history := make([]domain.ChatTurn, 0, len(rows))
	for _, m := range rows {
		history = append(history, domain.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return history
}

// loadProfile fetches the user's profile for prompt personalization.
// A missing profile is not an error - chat works without one.
func (s *counsellorService) loadProfile(ctx context.Context, userID uuid.UUID) *domain.Profile {
	row, err := s.queries.GetProfileByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load profile for chat", "user_id", userID, "error", err)
		}
		return nil
	}
	return repoProfileToDomain(row)
}

// requireProfile fetches the user's profile, failing when it is missing.
// Career and course suggestions are meaningless without one.
func (s *counsellorService) requireProfile(ctx context.Context, op string, userID uuid.UUID) (*domain.Profile, error) {
	row, err := s.queries.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Invalid(op, "Complete your profile before requesting suggestions")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve profile")
	}
	return repoProfileToDomain(row), nil
}

// deriveTitle builds a conversation title from its first message. Truncation
// counts runes, not bytes, so a multibyte message never yields invalid UTF-8.
func deriveTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	runes := []rune(title)
	if len(runes) > maxConversationTitleLength {
		title = strings.TrimSpace(string(runes[:maxConversationTitleLength-3])) + "..."
	}
	return title
}

// recordAIUsage folds provider usage into the aggregate metrics.
func recordAIUsage(usage ai.UsageInfo) {
	metrics.AIAPICalls.WithLabelValues("success").Inc()
	metrics.AITokensTotal.WithLabelValues("input").Add(float64(usage.InputTokens))
	metrics.AITokensTotal.WithLabelValues("output").Add(float64(usage.OutputTokens))
}

// aiErrorToDomain maps provider errors onto domain error codes so handlers
// return sensible HTTP statuses.
func aiErrorToDomain(op string, err error) error {
	switch {
	case errors.Is(err, ai.EAIRateLimit):
		return domain.Errorf(domain.ERATELIMIT, op, "The counsellor is receiving too many requests. Please try again shortly.")
	case errors.Is(err, ai.EAITimeout), errors.Is(err, ai.EAIUnavailable):
		return domain.Unavailable(err, op, "The counsellor is temporarily unavailable. Please try again shortly.")
	default:
		return domain.Internal(err, op, "The counsellor could not process your request")
	}
}

// repoConversationToDomain converts a repository conversation row.
func repoConversationToDomain(c repository.Conversation) *domain.Conversation {
	return &domain.Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Time,
		UpdatedAt: c.UpdatedAt.Time,
	}
}

// repoMessageToDomain converts a repository message row.
func repoMessageToDomain(m repository.Message) *domain.Message {
	return &domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           domain.MessageRole(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Time,
	}
}

var _ CounsellorService = (*counsellorService)(nil)
