// Package apiclient is the Go SDK for the Lodestar API.
//
// The client attaches the bearer token from its TokenStore to every request
// and reacts to a 401 by clearing the store and asking its Navigator to go
// to the login page. Transport and navigation are deliberately separate
// capabilities so each is testable on its own; the zero Navigator simply
// does nothing, which suits non-interactive callers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lodestar-edu/lodestar/internal/domain"
)

// defaultTimeout bounds a single API call when the caller does not supply
// its own http.Client.
const defaultTimeout = 30 * time.Second

// DefaultLoginPath is where the Navigator is sent after a 401.
const DefaultLoginPath = "/login"

// Client calls the Lodestar API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	nav        Navigator
	loginPath  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore replaces the default in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// WithNavigator sets the redirect capability invoked on a 401.
func WithNavigator(nav Navigator) Option {
	return func(c *Client) { c.nav = nav }
}

// WithLoginPath overrides where the Navigator is sent on a 401.
func WithLoginPath(path string) Option {
	return func(c *Client) { c.loginPath = path }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      NewMemoryStore(),
		loginPath:  DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the currently stored bearer token, or "" when signed out.
func (c *Client) Token() string {
	return c.store.Get()
}

// =============================================================================
// Wire Types
// =============================================================================

// User is the public shape of an account.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

// Session is the token envelope returned by register, login, and refresh.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// RegisterParams is the input for creating an account.
type RegisterParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Profile is the counselling profile document.
type Profile struct {
	ID                 string          `json:"id"`
	AcademicBackground json.RawMessage `json:"academic_background,omitempty"`
	Interests          []string        `json:"interests"`
	CareerGoals        json.RawMessage `json:"career_goals,omitempty"`
	Preferences        json.RawMessage `json:"preferences,omitempty"`
	TestScores         json.RawMessage `json:"test_scores,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProfileUpdate is a partial profile update. Absent sections are left
// untouched on the server.
type ProfileUpdate struct {
	AcademicBackground json.RawMessage `json:"academic_background,omitempty"`
	Interests          []string        `json:"interests,omitempty"`
	CareerGoals        json.RawMessage `json:"career_goals,omitempty"`
	Preferences        json.RawMessage `json:"preferences,omitempty"`
	TestScores         json.RawMessage `json:"test_scores,omitempty"`
}

// OnboardingStatus reports where the user is in the onboarding flow.
type OnboardingStatus struct {
	OnboardingCompleted bool `json:"onboarding_completed"`
	HasProfile          bool `json:"has_profile"`
}

// Conversation is a counselling chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn in a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatResult is one completed counselling turn.
type ChatResult struct {
	Conversation Conversation `json:"conversation"`
	Reply        Message      `json:"reply"`
}

// TodoCreateParams is the input for creating a todo.
type TodoCreateParams struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
}

// TodoUpdateParams is a partial todo update. Nil fields are left untouched.
type TodoUpdateParams struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Category    *string `json:"category,omitempty"`
}

// TodoFilter narrows a todo listing.
type TodoFilter struct {
	Category  string
	Completed *bool
}

// =============================================================================
// Auth
// =============================================================================

// Register creates an account and signs in, storing the issued token.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", params, &session); err != nil {
		return nil, err
	}
	c.store.Set(session.AccessToken)
	return &session, nil
}

// Login authenticates with email and password, storing the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &session); err != nil {
		return nil, err
	}
	c.store.Set(session.AccessToken)
	return &session, nil
}

// Logout discards the stored token. The server call clears the session
// cookie for browser navigation; the local token is dropped regardless of
// whether that call succeeds.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.store.Clear()
	return err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges the stored token for a fresh one.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, &session); err != nil {
		return nil, err
	}
	c.store.Set(session.AccessToken)
	return &session, nil
}

// =============================================================================
// Profile & Onboarding
// =============================================================================

// Profile returns the user's counselling profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial update and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeleteProfile removes the profile and resets onboarding.
func (c *Client) DeleteProfile(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/profile", nil, nil)
}

// OnboardingStatus reports onboarding progress.
func (c *Client) OnboardingStatus(ctx context.Context) (*OnboardingStatus, error) {
	var status OnboardingStatus
	if err := c.do(ctx, http.MethodGet, "/api/onboarding/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CompleteOnboarding marks onboarding finished and starts recommendation
// generation in the background.
func (c *Client) CompleteOnboarding(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/onboarding/complete", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SkipOnboarding marks onboarding finished without a profile.
func (c *Client) SkipOnboarding(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/onboarding/skip", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// =============================================================================
// Universities
// =============================================================================

// SearchUniversities queries the directory by name and/or country.
func (c *Client) SearchUniversities(ctx context.Context, name, country string, limit int) ([]domain.University, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}
	if country != "" {
		query.Set("country", country)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Universities []domain.University `json:"universities"`
	}
	path := "/api/universities/search?" + query.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Universities, nil
}

// Countries returns the curated study destinations.
func (c *Client) Countries(ctx context.Context) ([]domain.Country, error) {
	var out struct {
		Countries []domain.Country `json:"countries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/universities/countries", nil, &out); err != nil {
		return nil, err
	}
	return out.Countries, nil
}

// UniversitiesByCountry lists universities in one country.
func (c *Client) UniversitiesByCountry(ctx context.Context, country string, limit int) ([]domain.University, error) {
	path := "/api/universities/" + url.PathEscape(country)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Universities []domain.University `json:"universities"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Universities, nil
}

// Recommendations returns the user's stored AI-scored matches.
func (c *Client) Recommendations(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	path := "/api/universities/recommendations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Recommendations []domain.Recommendation `json:"recommendations"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

// =============================================================================
// Counsellor
// =============================================================================

// Chat runs one counselling turn. An empty conversationID starts a new
// conversation.
func (c *Client) Chat(ctx context.Context, message, conversationID string) (*ChatResult, error) {
	body := map[string]string{"message": message}
	if conversationID != "" {
		body["conversation_id"] = conversationID
	}

	var result ChatResult
	if err := c.do(ctx, http.MethodPost, "/api/counsellor/chat", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Conversations lists the user's chat threads, most recently active first.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/counsellor/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// Messages returns a conversation's messages, oldest first.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	path := "/api/counsellor/conversations/" + url.PathEscape(conversationID) + "/messages"

	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	path := "/api/counsellor/conversations/" + url.PathEscape(conversationID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CareerSuggestions returns AI-suggested career paths for the user.
func (c *Client) CareerSuggestions(ctx context.Context, limit int) ([]domain.CareerOption, error) {
	path := "/api/counsellor/careers"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Careers []domain.CareerOption `json:"careers"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Careers, nil
}

// CourseSuggestions returns AI-suggested fields of study for the user.
func (c *Client) CourseSuggestions(ctx context.Context, limit int) ([]domain.CourseOption, error) {
	path := "/api/counsellor/courses"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Courses []domain.CourseOption `json:"courses"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// =============================================================================
// Todos
// =============================================================================

// Todos lists the user's todos, newest first.
func (c *Client) Todos(ctx context.Context, filter TodoFilter) ([]domain.Todo, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.Completed != nil {
		query.Set("completed", strconv.FormatBool(*filter.Completed))
	}

	path := "/api/todos"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out struct {
		Todos []domain.Todo `json:"todos"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Todos, nil
}

// CreateTodo adds a todo.
func (c *Client) CreateTodo(ctx context.Context, params TodoCreateParams) (*domain.Todo, error) {
	var item domain.Todo
	if err := c.do(ctx, http.MethodPost, "/api/todos", params, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetTodo returns a single todo.
func (c *Client) GetTodo(ctx context.Context, id string) (*domain.Todo, error) {
	var item domain.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateTodo applies a partial update to a todo.
func (c *Client) UpdateTodo(ctx context.Context, id string, params TodoUpdateParams) (*domain.Todo, error) {
	var item domain.Todo
	if err := c.do(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id), params, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleTodo flips a todo's completed flag.
func (c *Client) ToggleTodo(ctx context.Context, id string) (*domain.Todo, error) {
	var item domain.Todo
	if err := c.do(ctx, http.MethodPost, "/api/todos/"+url.PathEscape(id)+"/toggle", nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteTodo removes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// Transport
// =============================================================================

// do performs one API call.
//
// The stored token, when present, is attached as a single Authorization
// header. Transport errors propagate unchanged; there are no retries. A 401
// clears the token store and fires the Navigator exactly once per
// signed-in-to-signed-out transition, and the error is still returned so the
// caller can render an inline failure if the redirect does not happen.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.store.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessionRejected()
		return c.apiError(resp)
	}
	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sessionRejected handles the authenticated-to-unauthenticated transition.
// Clear is atomic, so of any number of concurrent 401s only one observes
// the transition and triggers the navigation.
func (c *Client) sessionRejected() {
	if !c.store.Clear() {
		return
	}
	if c.nav != nil {
		c.nav.NavigateTo(c.loginPath)
	}
}

// apiError converts an error response into a domain error, preserving the
// server's code and message when the body carries the standard envelope.
func (c *Client) apiError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return &domain.Error{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
	}

	return &domain.Error{
		Code:    codeForStatus(resp.StatusCode),
		Message: fmt.Sprintf("API returned status %d", resp.StatusCode),
	}
}

// codeForStatus maps an HTTP status onto a domain error code for responses
// that do not carry the JSON error envelope.
func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return domain.EUNAUTHORIZED
	case http.StatusForbidden:
		return domain.EFORBIDDEN
	case http.StatusNotFound:
		return domain.ENOTFOUND
	case http.StatusConflict:
		return domain.ECONFLICT
	case http.StatusBadRequest:
		return domain.EINVALID
	case http.StatusTooManyRequests:
		return domain.ERATELIMIT
	case http.StatusServiceUnavailable:
		return domain.EUNAVAILABLE
	default:
		return domain.EINTERNAL
	}
}
