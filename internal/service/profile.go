package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ProfileService manages the counselling profile collected during onboarding.
type ProfileService interface {
	// Get retrieves a user's profile.
	// Returns domain.ENOTFOUND if the user has no profile yet.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	// Update applies a partial profile update, creating the profile on
	// first write. Nil sections in params are left untouched.
	// Returns domain.EINVALID if the update carries no sections.
	Update(ctx context.Context, params domain.ProfileUpdateParams) (*domain.Profile, error)

	// Delete removes a user's profile.
	// Idempotent - deleting a missing profile is not an error.
	Delete(ctx context.Context, userID uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

type profileService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(queries *repository.Queries, logger *slog.Logger) ProfileService {
	return &profileService{
		queries: queries,
		logger:  logger,
	}
}

// Get retrieves a user's profile.
func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	const op = "ProfileService.Get"

	repoProfile, err := s.queries.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "Profile not found")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve profile")
	}

	return repoProfileToDomain(repoProfile), nil
}

// Update applies a partial profile update.
//
// Flow:
// 1. Reject empty updates
// 2. Load the existing profile, if any, to merge unspecified sections
// 3. Upsert the merged profile
//
// The merge happens in Go rather than SQL so a PUT with only one section
// does not wipe the others. The upsert itself is atomic.
func (s *profileService) Update(ctx context.Context, params domain.ProfileUpdateParams) (*domain.Profile, error) {
	const op = "ProfileService.Update"

	if params.IsEmpty() {
		return nil, domain.Invalid(op, "Profile update must include at least one section")
	}

	merged := domain.Profile{UserID: params.UserID}

	existing, err := s.queries.GetProfileByUserID(ctx, params.UserID)
	if err == nil {
		merged = *repoProfileToDomain(existing)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to retrieve profile")
	}

	if params.AcademicBackground != nil {
		merged.AcademicBackground = params.AcademicBackground
	}
	if params.Interests != nil {
		merged.Interests = params.Interests
	}
	if params.CareerGoals != nil {
		merged.CareerGoals = params.CareerGoals
	}
	if params.Preferences != nil {
		merged.Preferences = params.Preferences
	}
	if params.TestScores != nil {
		merged.TestScores = params.TestScores
	}

	interests := merged.Interests
	if interests == nil {
		interests = []string{}
	}

	saved, err := s.queries.UpsertProfile(ctx, repository.UpsertProfileParams{
		UserID:             params.UserID,
		AcademicBackground: domain.ToNullRawMessage(merged.AcademicBackground),
		Interests:          interests,
		CareerGoals:        domain.ToNullRawMessage(merged.CareerGoals),
		Preferences:        domain.ToNullRawMessage(merged.Preferences),
		TestScores:         domain.ToNullRawMessage(merged.TestScores),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save profile")
	}

	s.logger.Info("profile updated", "user_id", params.UserID)

	return repoProfileToDomain(saved), nil
}

// Delete removes a user's profile.
func (s *profileService) Delete(ctx context.Context, userID uuid.UUID) error {
	const op = "ProfileService.Delete"

	if err := s.queries.DeleteProfile(ctx, userID); err != nil {
		return domain.Internal(err, op, "Failed to delete profile")
	}

	s.logger.Info("profile deleted", "user_id", userID)

	return nil
}

// repoProfileToDomain converts a repository profile row to a domain profile.
func repoProfileToDomain(p repository.Profile) *domain.Profile {
	return &domain.Profile{
		ID:                 p.ID,
		UserID:             p.UserID,
		AcademicBackground: domain.NullRawMessageValue(p.AcademicBackground),
		Interests:          p.Interests,
		CareerGoals:        domain.NullRawMessageValue(p.CareerGoals),
		Preferences:        domain.NullRawMessageValue(p.Preferences),
		TestScores:         domain.NullRawMessageValue(p.TestScores),
		CreatedAt:          p.CreatedAt.Time,
		UpdatedAt:          p.UpdatedAt.Time,
	}
}

var _ ProfileService = (*profileService)(nil)
