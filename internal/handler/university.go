package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/lodestar-edu/lodestar/internal/auth"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/service"
	"github.com/lodestar-edu/lodestar/internal/university"
)

// defaultSearchLimit caps directory search results when the client does not
// ask for a specific page size.
const defaultSearchLimit = 20

// UniversityHandler proxies the external universities directory and serves
// the stored AI recommendations.
//
// Routes handled:
// - GET /api/universities/search          -> Search
// - GET /api/universities/countries       -> Countries
// - GET /api/universities/recommendations -> Recommendations
// - GET /api/universities/{country}       -> ByCountry
type UniversityHandler struct {
	client          *university.Client
	recommendations service.RecommendationService
	logger          *slog.Logger
}

// NewUniversityHandler creates a new UniversityHandler.
func NewUniversityHandler(client *university.Client, recommendations service.RecommendationService, logger *slog.Logger) *UniversityHandler {
	return &UniversityHandler{
		client:          client,
		recommendations: recommendations,
		logger:          logger,
	}
}

// Search looks up universities in the external directory.
//
// Query Parameters:
// - name (optional): substring match on the university name
// - country (optional): country name, case-insensitive
// - limit (optional): max results, default 20, capped at 100
//
// At least one of name or country is required; an unconstrained query
// against the directory would pull tens of thousands of rows.
func (h *UniversityHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	country := r.URL.Query().Get("country")

	if name == "" && country == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("UniversityHandler.Search", "Provide a name or country to search for"))
		return
	}

	limit := queryInt(r, "limit", defaultSearchLimit)
	if limit < 1 || limit > 100 {
		limit = defaultSearchLimit
	}

	results, err := h.client.Search(r.Context(), name, country, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"universities": results,
		"count":        len(results),
	})
}

// Countries returns the curated list of popular study destinations.
func (h *UniversityHandler) Countries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"countries": domain.PopularDestinations,
	})
}

// Recommendations returns the authenticated user's stored AI-scored
// university matches, best match first.
//
// An empty list is a normal response: the background job has either not
// run yet or found nothing.
func (h *UniversityHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit := queryInt(r, "limit", 10)

	recs, err := h.recommendations.List(r.Context(), user.ID, int32(limit))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": recs,
		"count":           len(recs),
	})
}

// ByCountry lists universities in one country, named in the path.
func (h *UniversityHandler) ByCountry(w http.ResponseWriter, r *http.Request) {
	country := r.PathValue("country")
	if country == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("UniversityHandler.ByCountry", "Country is required"))
		return
	}

	limit := queryInt(r, "limit", defaultSearchLimit)
	if limit < 1 || limit > 100 {
		limit = defaultSearchLimit
	}

	results, err := h.client.Search(r.Context(), "", country, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"country":      h.client.NormalizeCountry(country),
		"universities": results,
		"count":        len(results),
	})
}

// queryInt parses an integer query parameter, falling back to a default.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
