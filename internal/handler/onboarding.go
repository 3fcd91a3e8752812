package handler

import (
	"log/slog"
	"net/http"

	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/metrics"
	"github.com/lodestar-edu/lodestar/internal/repository"
	"github.com/lodestar-edu/lodestar/internal/service"
	"github.com/lodestar-edu/lodestar/internal/worker"
)

// OnboardingHandler handles the onboarding flow endpoints.
//
// Routes handled:
// - GET  /api/onboarding/status   -> Status
// - POST /api/onboarding/complete -> Complete
// - POST /api/onboarding/skip     -> Skip
type OnboardingHandler struct {
	userService    service.UserService
	profileService service.ProfileService
	queries        *repository.Queries
	logger         *slog.Logger
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(
	userService service.UserService,
	profileService service.ProfileService,
	queries *repository.Queries,
	logger *slog.Logger,
) *OnboardingHandler {
	return &OnboardingHandler{
		userService:    userService,
		profileService: profileService,
		queries:        queries,
		logger:         logger,
	}
}

type onboardingStatusResponse struct {
	OnboardingCompleted bool `json:"onboarding_completed"`
	HasProfile          bool `json:"has_profile"`
}

// Status reports where the user is in the onboarding flow.
func (h *OnboardingHandler) Status(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	hasProfile := true
	if _, err := h.profileService.Get(r.Context(), user.ID); err != nil {
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		hasProfile = false
	}

	writeJSON(w, http.StatusOK, onboardingStatusResponse{
		OnboardingCompleted: user.OnboardingCompleted,
		HasProfile:          hasProfile,
	})
}

// Complete marks onboarding as finished and kicks off recommendation
// generation in the background.
//
// Flow:
// 1. Require a saved profile - recommendations need something to match against
// 2. Flag the user as onboarded
// 3. Enqueue the generate_recommendations job
//
// The response returns immediately; recommendations appear once the job runs.
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if _, err := h.profileService.Get(r.Context(), user.ID); err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			err = domain.Invalid("OnboardingHandler.Complete", "Save your profile before completing onboarding")
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	updated, err := h.userService.CompleteOnboarding(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	job, err := worker.EnqueueGenerateRecommendations(r.Context(), h.queries, user.ID,
		worker.WithPriority(worker.PriorityHigh),
	)
	if err != nil {
		// Onboarding itself succeeded; surface the degraded state in logs
		// rather than failing the request. Recommendations can be retried.
		h.logger.Error("failed to enqueue recommendations job", "user_id", user.ID, "error", err)
	} else {
		h.logger.Info("recommendations job enqueued", "user_id", user.ID, "job_id", job.ID)
	}

	metrics.OnboardingsCompleted.Inc()
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}

// Skip marks onboarding as finished without a profile. No recommendation
// job is enqueued since there is nothing to match against.
func (h *OnboardingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	updated, err := h.userService.CompleteOnboarding(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.OnboardingsCompleted.Inc()
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}
