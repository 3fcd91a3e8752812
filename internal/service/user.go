// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/repository"
	"github.com/lodestar-edu/lodestar/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security (~250ms on modern hardware) while being
	// fast enough for login flows. NIST recommends cost 10+.
	//
	// SECURITY NOTE: This should NOT be configurable at runtime to prevent
	// accidental weakening. If you need to change it, do so here and redeploy.
	BcryptCost = 12

	// MinPasswordLength is the minimum password length.
	// NIST SP 800-63B recommends 8+ characters minimum.
	MinPasswordLength = 8

	// MaxPasswordLength prevents DoS via bcrypt on very long passwords.
	// bcrypt has a 72-byte limit anyway, but we cap earlier for clarity.
	MaxPasswordLength = 72
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines the interface for user and authentication operations.
//
// This interface enables:
// - Mocking in unit tests
// - Clear contract definition for handlers and middleware
type UserService interface {
	// Register creates a new user account and issues its first token.
	// Returns domain.ECONFLICT if email already exists.
	// Returns domain.EINVALID for validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.AuthResult, error)

	// Login authenticates a user and issues a fresh token.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)

	// Refresh issues a new token for an already-authenticated user.
	Refresh(ctx context.Context, user *domain.User) (*domain.AuthResult, error)

	// GetByID retrieves a user by their ID.
	// Returns domain.ENOTFOUND if user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// CompleteOnboarding marks the user's onboarding as finished.
	// Idempotent - completing an already-completed onboarding is not an error.
	// Returns domain.ENOTFOUND if user does not exist.
	CompleteOnboarding(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// =============================================================================
// Implementation
// =============================================================================

// userService is the concrete implementation of UserService.
type userService struct {
	queries *repository.Queries
	tokens  *token.Manager
	logger  *slog.Logger
}

// NewUserService creates a new UserService instance.
//
// Dependencies:
// - queries: sqlc-generated database queries
// - tokens: signer for issued access tokens
// - logger: structured logger for operation logging
func NewUserService(queries *repository.Queries, tokens *token.Manager, logger *slog.Logger) UserService {
	return &userService{
		queries: queries,
		tokens:  tokens,
		logger:  logger,
	}
}

// =============================================================================
// Register Implementation
// =============================================================================

// Register creates a new user account with the provided parameters.
//
// Flow:
// 1. Validate input parameters (email format, password strength)
// 2. Check if email already exists
// 3. Hash the password with bcrypt
// 4. Create the user record
// 5. Issue an access token so the client is signed in immediately
//
// Security Considerations:
// - Password is hashed with bcrypt cost 12
// - Timing attacks are mitigated by always hashing even on duplicate email
// - The raw password is never logged or stored
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.AuthResult, error) {
	const op = "UserService.Register"

	// Validate and normalize input
	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.FullName = strings.TrimSpace(params.FullName)

	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}

	if params.FullName == "" {
		return nil, domain.Invalid(op, "Full name is required")
	}

	if err := validatePassword(params.Password); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid password")
	}

	// Check if email already exists
	_, err := s.queries.GetUserByEmail(ctx, params.Email)
	if err == nil {
		// User exists - to prevent timing attacks, we hash the password anyway
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
		FullName:     params.FullName,
	})
	if err != nil {
		// Check for unique constraint violation (race condition)
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user := repoUserToDomain(repoUser)

	// Clear password hash before returning (security precaution)
	user.PasswordHash = ""

	result, err := s.issueToken(user, op)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return result, nil
}

// =============================================================================
// Login Implementation
// =============================================================================

// Login authenticates a user and issues a fresh access token.
//
// Flow:
// 1. Look up user by email
// 2. Compare password hash using bcrypt
// 3. Issue a signed access token
//
// Security Considerations:
// - Constant-time password comparison via bcrypt
// - Generic error message prevents email enumeration
// - A dummy bcrypt comparison runs when the email is unknown, so the
//   response time does not reveal which emails exist
func (s *userService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Use a dummy hash to maintain constant time
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW" // bcrypt hash of "dummy"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	result, err := s.issueToken(user, op)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return result, nil
}

// =============================================================================
// Refresh Implementation
// =============================================================================

// Refresh issues a new access token for an already-authenticated user.
// The caller is responsible for having verified the current token.
func (s *userService) Refresh(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	const op = "UserService.Refresh"

	if user == nil {
		return nil, domain.Unauthorized(op, "Authentication required")
	}

	return s.issueToken(user, op)
}

// =============================================================================
// Lookup Implementation
// =============================================================================

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "User not found")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// =============================================================================
// Onboarding Implementation
// =============================================================================

// CompleteOnboarding marks the user's onboarding as finished and returns
// the updated user.
func (s *userService) CompleteOnboarding(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	const op = "UserService.CompleteOnboarding"

	if err := s.queries.UpdateUserOnboarding(ctx, repository.UpdateUserOnboardingParams{
		ID:                  userID,
		OnboardingCompleted: true,
	}); err != nil {
		return nil, domain.Internal(err, op, "Failed to update onboarding status")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("onboarding completed", "user_id", userID)

	return user, nil
}

// =============================================================================
// Helpers
// =============================================================================

// issueToken signs a new access token for the user.
func (s *userService) issueToken(user *domain.User, op string) (*domain.AuthResult, error) {
	tokenStr, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to issue token")
	}
	return &domain.AuthResult{
		User:      user,
		Token:     tokenStr,
		ExpiresAt: expiresAt,
	}, nil
}

// validateEmail checks that the email is a plausible address.
func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email format is invalid")
	}
	return nil
}

// validatePassword enforces the password length policy.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must be at most 72 characters")
	}
	return nil
}

// repoUserToDomain converts a repository user row to a domain user.
func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:                  u.ID,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		FullName:            u.FullName,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt.Time,
		UpdatedAt:           u.UpdatedAt.Time,
	}
}

// Compile-time check that userService implements UserService.
var _ UserService = (*userService)(nil)
