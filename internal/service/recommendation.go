package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// RecommendationService reads the AI-scored university matches produced by
// the background recommendation job.
type RecommendationService interface {
	// List returns the user's recommendations, best match first.
	// An empty slice means the job has not run yet (or found no matches).
	List(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Recommendation, error)
}

// =============================================================================
// Implementation
// =============================================================================

type recommendationService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewRecommendationService creates a new RecommendationService instance.
func NewRecommendationService(queries *repository.Queries, logger *slog.Logger) RecommendationService {
	return &recommendationService{
		queries: queries,
		logger:  logger,
	}
}

// List returns the user's recommendations, best match first.
func (s *recommendationService) List(ctx context.Context, userID uuid.UUID, limit int32) ([]domain.Recommendation, error) {
	const op = "RecommendationService.List"

	if limit <= 0 || limit > 50 {
		limit = 10
	}

	rows, err := s.queries.ListUserRecommendations(ctx, repository.ListUserRecommendationsParams{
		UserID: userID,
		Limit:  limit,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list recommendations")
	}

	recommendations := make([]domain.Recommendation, 0, len(rows))
	for _, row := range rows {
		recommendations = append(recommendations, repoRecommendationToDomain(row))
	}
	return recommendations, nil
}

// repoRecommendationToDomain converts a repository recommendation row.
func repoRecommendationToDomain(r repository.Recommendation) domain.Recommendation {
	return domain.Recommendation{
		ID:     r.ID,
		UserID: r.UserID,
		University: domain.University{
			Name:          r.UniversityName,
			Country:       r.Country,
			WebPages:      r.WebPages,
			Domains:       r.Domains,
			AlphaTwoCode:  r.AlphaTwoCode,
			StateProvince: r.StateProvince.String,
		},
		MatchScore: r.MatchScore,
		Reasoning:  r.Reasoning,
		CreatedAt:  r.CreatedAt.Time,
	}
}

var _ RecommendationService = (*recommendationService)(nil)
