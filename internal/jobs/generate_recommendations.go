// Package jobs contains the background job handlers executed by the worker.
package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lodestar-edu/lodestar/internal/ai"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/metrics"
	"github.com/lodestar-edu/lodestar/internal/repository"
	"github.com/lodestar-edu/lodestar/internal/university"
	"github.com/lodestar-edu/lodestar/internal/worker"
)

const (
	// candidatesPerCountry caps how many universities are fetched from the
	// directory for each preferred country before AI scoring.
	candidatesPerCountry = 25

	// maxRecommendations is how many scored matches are persisted per run.
	maxRecommendations = 10
)

// GenerateRecommendationsHandler processes jobs that build university
// recommendations for a user. It fetches candidate universities for the
// user's preferred countries, has the AI counsellor score them against the
// profile, and replaces the user's stored recommendations with the results.
type GenerateRecommendationsHandler struct {
	db           *sql.DB
	queries      *repository.Queries
	counsellor   ai.Counsellor
	universities *university.Client
	logger       *slog.Logger
}

// NewGenerateRecommendationsHandler creates a new handler for recommendation jobs.
// The database handle is needed alongside the queries so the recommendation
// swap can run in a transaction.
func NewGenerateRecommendationsHandler(
	db *sql.DB,
	queries *repository.Queries,
	counsellor ai.Counsellor,
	universities *university.Client,
	logger *slog.Logger,
) *GenerateRecommendationsHandler {
	return &GenerateRecommendationsHandler{
		db:           db,
		queries:      queries,
		counsellor:   counsellor,
		universities: universities,
		logger:       logger,
	}
}

// Type returns the job type identifier.
func (h *GenerateRecommendationsHandler) Type() string {
	return worker.JobTypeGenerateRecommendations
}

// Handle executes the recommendation job.
//
// Flow:
// 1. Validate the payload and load the user's profile
// 2. Fetch candidate universities for the preferred countries
// 3. Score candidates against the profile with the AI counsellor
// 4. Replace the user's stored recommendations with the new set
//
// Steps 2 and 3 depend on upstream services and fail retryably; a missing
// user or profile is permanent since retrying cannot fix it.
func (h *GenerateRecommendationsHandler) Handle(ctx context.Context, payload []byte) error {
	// Unmarshal the payload
	var p worker.GenerateRecommendationsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	h.logger.Info("Generating recommendations", "user_id", p.UserID)

	// 1. Fetch and validate the user
	if _, err := h.queries.GetUserByID(ctx, p.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.NewPermanentError(fmt.Errorf("user not found: %w", err))
		}
		// Database error - retryable
		return fmt.Errorf("fetch user: %w", err)
	}

	profileRow, err := h.queries.GetProfileByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.NewPermanentError(fmt.Errorf("user has no profile: %w", err))
		}
		return fmt.Errorf("fetch profile: %w", err)
	}
	profile := profileFromRow(profileRow)

	// 2. Fetch candidate universities for the preferred countries
	countries := profile.PreferredCountries()
	candidates, err := h.universities.FetchByCountries(ctx, countries, candidatesPerCountry)
	if err != nil {
		// Directory outages are transient
		return fmt.Errorf("fetch universities: %w", err)
	}
	if len(candidates) == 0 {
		return worker.NewPermanentError(fmt.Errorf("no universities found for countries: %v", countries))
	}

	h.logger.Info("Fetched candidate universities",
		"user_id", p.UserID,
		"countries", countries,
		"count", len(candidates),
	)

	// 3. Score candidates against the profile
	result, err := h.counsellor.RecommendUniversities(ctx, ai.RecommendParams{
		Profile:      profile,
		Universities: candidates,
		MaxResults:   maxRecommendations,
		UserID:       p.UserID,
	})
	if err != nil {
		if ai.IsRetryable(err) {
			return fmt.Errorf("score universities: %w", err)
		}
		return worker.NewPermanentError(fmt.Errorf("score universities: %w", err))
	}
	if len(result.Recommendations) == 0 {
		return worker.NewPermanentError(fmt.Errorf("counsellor returned no recommendations"))
	}

	// 4. Replace the stored recommendations
	if err := h.storeRecommendations(ctx, p, result.Recommendations); err != nil {
		return err
	}

	metrics.RecommendationsGenerated.Add(float64(len(result.Recommendations)))

	h.logger.Info("Recommendations generated",
		"user_id", p.UserID,
		"count", len(result.Recommendations),
	)

	return nil
}

// storeRecommendations atomically swaps the user's recommendation set.
// Delete and inserts run in one transaction so readers never see a
// half-written set.
func (h *GenerateRecommendationsHandler) storeRecommendations(ctx context.Context, p worker.GenerateRecommendationsPayload, scored []ai.ScoredUniversity) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := h.writeRecommendations(ctx, h.queries.WithTx(tx), p, scored); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recommendations: %w", err)
	}
	return nil
}

func (h *GenerateRecommendationsHandler) writeRecommendations(ctx context.Context, q *repository.Queries, p worker.GenerateRecommendationsPayload, scored []ai.ScoredUniversity) error {
	if err := q.DeleteUserRecommendations(ctx, p.UserID); err != nil {
		return fmt.Errorf("clear old recommendations: %w", err)
	}

	for _, rec := range scored {
		stateProvince := sql.NullString{}
		if rec.University.StateProvince != "" {
			stateProvince = sql.NullString{String: rec.University.StateProvince, Valid: true}
		}

		if _, err := q.CreateRecommendation(ctx, repository.CreateRecommendationParams{
			UserID:         p.UserID,
			UniversityName: rec.University.Name,
			Country:        rec.University.Country,
			WebPages:       rec.University.WebPages,
			Domains:        rec.University.Domains,
			AlphaTwoCode:   rec.University.AlphaTwoCode,
			StateProvince:  stateProvince,
			MatchScore:     rec.MatchScore,
			Reasoning:      rec.Reasoning,
		}); err != nil {
			return fmt.Errorf("store recommendation: %w", err)
		}
	}
	return nil
}

// profileFromRow converts a repository profile row to a domain profile.
func profileFromRow(p repository.Profile) *domain.Profile {
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

var _ worker.JobHandler = (*GenerateRecommendationsHandler)(nil)
