package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
)

// Counsellor defines the interface for AI-powered study-abroad counselling.
type Counsellor interface {
	// Chat answers a counselling question given prior conversation turns.
	Chat(ctx context.Context, params ChatParams) (*ChatResult, error)

	// RecommendUniversities scores candidate universities against a
	// student profile.
	RecommendUniversities(ctx context.Context, params RecommendParams) (*RecommendResult, error)

	// SuggestCareerPaths proposes career options matching a profile.
	SuggestCareerPaths(ctx context.Context, params ProfileParams) (*CareerResult, error)

	// RecommendCourses proposes fields of study matching a profile.
	RecommendCourses(ctx context.Context, params ProfileParams) (*CourseResult, error)
}

// ChatParams contains parameters for a counselling chat turn.
type ChatParams struct {
	Message string            // The student's new message
	History []domain.ChatTurn // Prior turns, oldest first
	Profile *domain.Profile   // Optional profile for personalization
	UserID  uuid.UUID         // User ID for usage tracking
}

// ChatResult contains the assistant's reply.
type ChatResult struct {
	Reply string    // Assistant response text
	Usage UsageInfo // Token usage information
}

// RecommendParams contains parameters for university recommendation scoring.
type RecommendParams struct {
	Profile      *domain.Profile     // Student profile to match against
	Universities []domain.University // Candidate universities
	MaxResults   int                 // Maximum number of recommendations
	UserID       uuid.UUID           // User ID for usage tracking
}

// RecommendResult contains scored university recommendations.
type RecommendResult struct {
	Recommendations []ScoredUniversity
	Usage           UsageInfo
}

// ScoredUniversity pairs a candidate university with its match assessment.
type ScoredUniversity struct {
	University domain.University
	MatchScore float64 // 0-100
	Reasoning  string  // Why this university fits the profile
}

// ProfileParams contains parameters for profile-driven suggestions.
type ProfileParams struct {
	Profile    *domain.Profile
	MaxResults int
	UserID     uuid.UUID
}

// CareerResult contains suggested career paths.
type CareerResult struct {
	Careers []domain.CareerOption
	Usage   UsageInfo
}

// CourseResult contains suggested fields of study.
type CourseResult struct {
	Courses []domain.CourseOption
	Usage   UsageInfo
}

// UsageInfo tracks API usage for monitoring.
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers.
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIBadResponse indicates the provider returned an unparseable response
	EAIBadResponse = errors.New("ai provider returned malformed response")
)

// IsRetryable returns true if the error is a transient error that can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
