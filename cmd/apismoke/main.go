// Command apismoke drives the API client through a full user journey
// against a running server: register, save a profile, complete onboarding,
// search universities, manage todos, and chat with the counsellor.
//
// Usage:
//
//	apismoke -base-url http://localhost:8080
//
// The run fails fast on the first unexpected error, making it usable as a
// deployment smoke check.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lodestar-edu/lodestar/internal/apiclient"
)

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "API base URL")
	email := flag.String("email", "", "account email (default: generated)")
	password := flag.String("password", "smoke-test-pw", "account password")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *baseURL, *email, *password); err != nil {
		log.Fatal(err)
	}
	fmt.Println("smoke test passed")
}

func run(ctx context.Context, baseURL, email, password string) error {
	if email == "" {
		email = fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	}

	client := apiclient.New(baseURL,
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(path string) {
			// A redirect here means the session died mid-run.
			fmt.Fprintf(os.Stderr, "session rejected, would navigate to %s\n", path)
		})),
	)

	// Register and confirm the token round-trips.
	session, err := client.Register(ctx, apiclient.RegisterParams{
		Email:    email,
		Password: password,
		FullName: "Smoke Test",
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	step("registered", session.User.Email)

	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("me: %w", err)
	}
	if me.ID != session.User.ID {
		return fmt.Errorf("me returned user %s, registered %s", me.ID, session.User.ID)
	}
	step("token accepted", me.ID)

	// Save a profile and complete onboarding.
	if _, err := client.UpdateProfile(ctx, apiclient.ProfileUpdate{
		Interests:   []string{"computer science", "economics"},
		Preferences: json.RawMessage(`{"countries":["Canada","Germany"]}`),
		CareerGoals: json.RawMessage(`{"target_role":"software engineer"}`),
	}); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	step("profile saved", "")

	if _, err := client.CompleteOnboarding(ctx); err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	status, err := client.OnboardingStatus(ctx)
	if err != nil {
		return fmt.Errorf("onboarding status: %w", err)
	}
	if !status.OnboardingCompleted {
		return fmt.Errorf("onboarding not marked completed")
	}
	step("onboarding completed", "")

	// University directory.
	universities, err := client.SearchUniversities(ctx, "", "Canada", 5)
	if err != nil {
		return fmt.Errorf("search universities: %w", err)
	}
	step("university search", fmt.Sprintf("%d results", len(universities)))

	countries, err := client.Countries(ctx)
	if err != nil {
		return fmt.Errorf("countries: %w", err)
	}
	step("countries", fmt.Sprintf("%d destinations", len(countries)))

	// Todo lifecycle.
	created, err := client.CreateTodo(ctx, apiclient.TodoCreateParams{
		Title:    "Request transcripts",
		Priority: "high",
		Category: "application",
	})
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	toggled, err := client.ToggleTodo(ctx, created.ID.String())
	if err != nil {
		return fmt.Errorf("toggle todo: %w", err)
	}
	if !toggled.Completed {
		return fmt.Errorf("todo not completed after toggle")
	}
	if err := client.DeleteTodo(ctx, created.ID.String()); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	step("todo lifecycle", "")

	// One counselling turn.
	chat, err := client.Chat(ctx, "Which universities in Canada suit a CS background?", "")
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if chat.Reply.Content == "" {
		return fmt.Errorf("chat returned an empty reply")
	}
	step("counsellor chat", chat.Conversation.ID)

	// Refresh, then sign out.
	if _, err := client.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	if err := client.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if client.Token() != "" {
		return fmt.Errorf("token still stored after logout")
	}
	step("logged out", "")

	return nil
}

func step(name, detail string) {
	if detail != "" {
		fmt.Printf("ok  %-22s %s\n", name, detail)
		return
	}
	fmt.Printf("ok  %s\n", name)
}
