package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/lodestar-edu/lodestar/internal/ai"
	"github.com/lodestar-edu/lodestar/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// newTestProvider creates a provider pointed at a test server.
func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: srv.URL,
		ProviderConfig: ai.ProviderConfig{
			MaxRetries:     2,
			RetryBaseDelay: time.Millisecond,
			RequestTimeout: 5 * time.Second,
		},
	}, nil, newTestLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// geminiReply builds a generateContent response with the given text.
func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			}},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     12,
			"candidatesTokenCount": 34,
		},
	}
}

func TestChat(t *testing.T) {
	var gotBody apiRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(geminiReply("You should start with IELTS preparation."))
	})

	result, err := p.Chat(context.Background(), ai.ChatParams{
		Message: "How do I prepare for studying in the UK?",
		History: []domain.ChatTurn{
			{Role: "user", Content: "Hi"},
			{Role: "assistant", Content: "Hello! How can I help?"},
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Reply != "You should start with IELTS preparation." {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
	if result.Usage.InputTokens != 12 || result.Usage.OutputTokens != 34 {
		t.Errorf("usage not captured: %+v", result.Usage)
	}

	// History must map assistant turns to the "model" role
	if len(gotBody.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(gotBody.Contents))
	}
	if gotBody.Contents[1].Role != "model" {
		t.Errorf("assistant turn role = %q, want model", gotBody.Contents[1].Role)
	}
	if gotBody.SystemInstruction == nil {
		t.Error("expected a system instruction")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty message")
	})

	if _, err := p.Chat(context.Background(), ai.ChatParams{Message: "  "}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestRecommendUniversities(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply(`{
			"recommendations": [
				{"name": "MIT", "match_score": 95, "reasoning": "Strong engineering fit"},
				{"name": "Invented University", "match_score": 90, "reasoning": "does not exist"},
				{"name": "Harvard University", "match_score": 150, "reasoning": "score out of range"}
			]
		}`))
	})

	candidates := []domain.University{
		{Name: "MIT", Country: "United States"},
		{Name: "Harvard University", Country: "United States"},
	}
	result, err := p.RecommendUniversities(context.Background(), ai.RecommendParams{
		Universities: candidates,
		MaxResults:   5,
	})
	if err != nil {
		t.Fatalf("RecommendUniversities() error = %v", err)
	}

	// The invented university is dropped, the out-of-range score clamped
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
	}
	if result.Recommendations[0].University.Name != "MIT" {
		t.Errorf("first recommendation = %q", result.Recommendations[0].University.Name)
	}
	if result.Recommendations[1].MatchScore != 100 {
		t.Errorf("score not clamped: %v", result.Recommendations[1].MatchScore)
	}
}

func TestRecommendUniversitiesMarkdownFences(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply("```json\n{\"recommendations\":[{\"name\":\"MIT\",\"match_score\":80,\"reasoning\":\"fit\"}]}\n```"))
	})

	result, err := p.RecommendUniversities(context.Background(), ai.RecommendParams{
		Universities: []domain.University{{Name: "MIT", Country: "United States"}},
	})
	if err != nil {
		t.Fatalf("RecommendUniversities() error = %v", err)
	}
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(result.Recommendations))
	}
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(geminiReply("recovered"))
	})

	result, err := p.Chat(context.Background(), ai.ChatParams{Message: "hello"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if result.Reply != "recovered" {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
}

func TestNoRetryOnAuthError(t *testing.T) {
	attempts := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := p.Chat(context.Background(), ai.ChatParams{Message: "hello"})
	if !errors.Is(err, ai.EAIUnauthorized) {
		t.Fatalf("expected EAIUnauthorized, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("auth errors must not retry, got %d attempts", attempts)
	}
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	attempts := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Chat(context.Background(), ai.ChatParams{Message: "hello"})
	if !errors.Is(err, ai.EAIRateLimit) {
		t.Fatalf("expected EAIRateLimit, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected MaxRetries attempts, got %d", attempts)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}, nil, newTestLogger()); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
