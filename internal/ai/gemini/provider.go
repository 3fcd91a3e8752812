// Package gemini implements the ai.Counsellor interface against Google's
// Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lodestar-edu/lodestar/internal/ai"
	"github.com/lodestar-edu/lodestar/internal/domain"
	"github.com/lodestar-edu/lodestar/internal/repository"
)

const (
	// APIBaseURL is the base URL for the Gemini API
	APIBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the default Gemini model to use
	DefaultModel = "gemini-2.0-flash"
)

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Override for testing; defaults to APIBaseURL
	ProviderConfig ai.ProviderConfig
}

// Provider implements the ai.Counsellor interface using the Gemini API
type Provider struct {
	config  Config
	client  *http.Client
	queries *repository.Queries
	logger  *slog.Logger
}

// New creates a new Gemini counsellor provider
func New(config Config, queries *repository.Queries, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		queries: queries,
		logger:  logger,
	}, nil
}

// Chat answers a counselling question given prior conversation turns.
func (p *Provider) Chat(ctx context.Context, params ai.ChatParams) (*ai.ChatResult, error) {
	startTime := time.Now()

	if strings.TrimSpace(params.Message) == "" {
		return nil, ai.WrapError("chat", fmt.Errorf("message is required"))
	}

	contents := make([]apiContent, 0, len(params.History)+1)
	for _, turn := range params.History {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, apiContent{
			Role:  role,
			Parts: []apiPart{{Text: turn.Content}},
		})
	}
	contents = append(contents, apiContent{
		Role:  "user",
		Parts: []apiPart{{Text: params.Message}},
	})

	reqBody := apiRequest{
		SystemInstruction: &apiContent{
			Parts: []apiPart{{Text: buildChatSystemPrompt(params.Profile)}},
		},
		Contents: contents,
	}

	resp, err := p.generate(ctx, reqBody)
	if err != nil {
		return nil, ai.WrapError("chat", err)
	}

	reply := resp.text()
	if reply == "" {
		return nil, ai.WrapError("chat", ai.EAIBadResponse)
	}

	usage := p.usageInfo(resp, startTime)
	p.trackUsage(ctx, params.UserID, usage, "chat")

	return &ai.ChatResult{Reply: reply, Usage: usage}, nil
}

// RecommendUniversities scores candidate universities against a profile.
func (p *Provider) RecommendUniversities(ctx context.Context, params ai.RecommendParams) (*ai.RecommendResult, error) {
	startTime := time.Now()

	if len(params.Universities) == 0 {
		return &ai.RecommendResult{}, nil
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	reqBody := apiRequest{
		Contents: []apiContent{{
			Role:  "user",
			Parts: []apiPart{{Text: buildRecommendPrompt(params.Profile, params.Universities, maxResults)}},
		}},
		GenerationConfig: &apiGenerationConfig{ResponseMimeType: "application/json"},
	}

	resp, err := p.generate(ctx, reqBody)
	if err != nil {
		return nil, ai.WrapError("recommend universities", err)
	}

	var output struct {
		Recommendations []struct {
			Name       string  `json:"name"`
			MatchScore float64 `json:"match_score"`
			Reasoning  string  `json:"reasoning"`
		} `json:"recommendations"`
	}
	if err := decodeJSONOutput(resp.text(), &output); err != nil {
		return nil, ai.WrapError("recommend universities", err)
	}

	// Join scored names back to the candidate list; the model only ranks,
	// it never invents universities.
	byName := make(map[string]int, len(params.Universities))
	for i, u := range params.Universities {
		byName[strings.ToLower(u.Name)] = i
	}

	result := &ai.RecommendResult{}
	for _, rec := range output.Recommendations {
		idx, ok := byName[strings.ToLower(rec.Name)]
		if !ok {
			continue
		}
		score := rec.MatchScore
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		result.Recommendations = append(result.Recommendations, ai.ScoredUniversity{
			University: params.Universities[idx],
			MatchScore: score,
			Reasoning:  rec.Reasoning,
		})
		if len(result.Recommendations) >= maxResults {
			break
		}
	}

	result.Usage = p.usageInfo(resp, startTime)
	p.trackUsage(ctx, params.UserID, result.Usage, "recommend_universities")

	return result, nil
}

// SuggestCareerPaths proposes career options matching a profile.
func (p *Provider) SuggestCareerPaths(ctx context.Context, params ai.ProfileParams) (*ai.CareerResult, error) {
	startTime := time.Now()

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	reqBody := apiRequest{
		Contents: []apiContent{{
			Role:  "user",
			Parts: []apiPart{{Text: buildCareerPrompt(params.Profile, maxResults)}},
		}},
		GenerationConfig: &apiGenerationConfig{ResponseMimeType: "application/json"},
	}

	resp, err := p.generate(ctx, reqBody)
	if err != nil {
		return nil, ai.WrapError("suggest career paths", err)
	}

	result := &ai.CareerResult{}
	var output struct {
		Careers []domain.CareerOption `json:"careers"`
	}
	if err := decodeJSONOutput(resp.text(), &output); err != nil {
		return nil, ai.WrapError("suggest career paths", err)
	}
	result.Careers = output.Careers
	if len(result.Careers) > maxResults {
		result.Careers = result.Careers[:maxResults]
	}

	result.Usage = p.usageInfo(resp, startTime)
	p.trackUsage(ctx, params.UserID, result.Usage, "suggest_careers")

	return result, nil
}

// RecommendCourses proposes fields of study matching a profile.
func (p *Provider) RecommendCourses(ctx context.Context, params ai.ProfileParams) (*ai.CourseResult, error) {
	startTime := time.Now()

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	reqBody := apiRequest{
		Contents: []apiContent{{
			Role:  "user",
			Parts: []apiPart{{Text: buildCoursePrompt(params.Profile, maxResults)}},
		}},
		GenerationConfig: &apiGenerationConfig{ResponseMimeType: "application/json"},
	}

	resp, err := p.generate(ctx, reqBody)
	if err != nil {
		return nil, ai.WrapError("recommend courses", err)
	}

	result := &ai.CourseResult{}
	var output struct {
		Courses []domain.CourseOption `json:"courses"`
	}
	if err := decodeJSONOutput(resp.text(), &output); err != nil {
		return nil, ai.WrapError("recommend courses", err)
	}
	result.Courses = output.Courses
	if len(result.Courses) > maxResults {
		result.Courses = result.Courses[:maxResults]
	}

	result.Usage = p.usageInfo(resp, startTime)
	p.trackUsage(ctx, params.UserID, result.Usage, "recommend_courses")

	return result, nil
}

// =============================================================================
// Request Execution
// =============================================================================

// generate executes a generateContent call with retry on transient errors.
func (p *Provider) generate(ctx context.Context, reqBody apiRequest) (*apiResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.config.BaseURL, p.config.Model)

	var lastErr error
	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", p.config.APIKey)

		resp, err := p.executeRequest(req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		// Only retry on retryable errors
		if !ai.IsRetryable(err) {
			return nil, err
		}

		if attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		// Exponential backoff: base * 2^(attempt-1)
		delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info("Retrying AI request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(req *http.Request) (*apiResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors are typically retryable
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to domain errors
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout:
		return ai.EAITimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

// usageInfo builds the usage record for a completed response.
func (p *Provider) usageInfo(resp *apiResponse, startTime time.Time) ai.UsageInfo {
	return ai.UsageInfo{
		Model:        p.config.Model,
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		Duration:     time.Since(startTime),
	}
}

// trackUsage records AI usage in the database. Failures are logged but do
// not fail the request.
func (p *Provider) trackUsage(ctx context.Context, userID uuid.UUID, usage ai.UsageInfo, requestType string) {
	if p.queries == nil {
		return
	}
	_, err := p.queries.CreateAIUsage(ctx, repository.CreateAIUsageParams{
		UserID:       userID,
		Model:        usage.Model,
		RequestType:  requestType,
		InputTokens:  int32(usage.InputTokens),
		OutputTokens: int32(usage.OutputTokens),
	})
	if err != nil {
		p.logger.Error("Failed to track AI usage", "error", err)
	}
}

// decodeJSONOutput parses a JSON document from model output, tolerating
// markdown code fences some models wrap around structured responses.
func decodeJSONOutput(text string, v any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	if text == "" {
		return ai.EAIBadResponse
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return fmt.Errorf("%w: %v", ai.EAIBadResponse, err)
	}
	return nil
}

// =============================================================================
// API request/response types
// =============================================================================

type apiRequest struct {
	SystemInstruction *apiContent         `json:"system_instruction,omitempty"`
	Contents          []apiContent        `json:"contents"`
	GenerationConfig  *apiGenerationConfig `json:"generationConfig,omitempty"`
}

type apiContent struct {
	Role  string    `json:"role,omitempty"`
	Parts []apiPart `json:"parts"`
}

type apiPart struct {
	Text string `json:"text"`
}

type apiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type apiResponse struct {
	Candidates []struct {
		Content apiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// text returns the first text part of the first candidate.
func (r *apiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	for _, part := range r.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Compile-time check that Provider implements ai.Counsellor.
var _ ai.Counsellor = (*Provider)(nil)
