package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/service"
)

// ProfileHandler handles the counselling profile endpoints.
//
// Routes handled:
// - GET    /api/profile -> Get
// - PUT    /api/profile -> Update
// - DELETE /api/profile -> Delete
type ProfileHandler struct {
	profileService service.ProfileService
	logger         *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// profileUpdateRequest carries a partial profile update. Absent sections are
// left untouched; present sections replace the stored value wholesale.
type profileUpdateRequest struct {
	AcademicBackground json.RawMessage `json:"academic_background,omitempty"`
	Interests          []string        `json:"interests,omitempty"`
	CareerGoals        json.RawMessage `json:"career_goals,omitempty"`
	Preferences        json.RawMessage `json:"preferences,omitempty"`
	TestScores         json.RawMessage `json:"test_scores,omitempty"`
}

type profileResponse struct {
	ID                 string          `json:"id"`
	AcademicBackground json.RawMessage `json:"academic_background,omitempty"`
	Interests          []string        `json:"interests"`
	CareerGoals        json.RawMessage `json:"career_goals,omitempty"`
	Preferences        json.RawMessage `json:"preferences,omitempty"`
	TestScores         json.RawMessage `json:"test_scores,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func newProfileResponse(p *domain.Profile) profileResponse {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return profileResponse{
		ID:                 p.ID.String(),
		AcademicBackground: p.AcademicBackground,
		Interests:          interests,
		CareerGoals:        p.CareerGoals,
		Preferences:        p.Preferences,
		TestScores:         p.TestScores,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// Get returns the authenticated user's profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	profile, err := h.profileService.Get(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

// Update applies a partial update to the authenticated user's profile,
// creating it on first write.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	profile, err := h.profileService.Update(r.Context(), domain.ProfileUpdateParams{
		UserID:             user.ID,
		AcademicBackground: req.AcademicBackground,
		Interests:          req.Interests,
		CareerGoals:        req.CareerGoals,
		Preferences:        req.Preferences,
		TestScores:         req.TestScores,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newProfileResponse(profile))
}

// Delete removes the authenticated user's profile.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if err := h.profileService.Delete(r.Context(), user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
