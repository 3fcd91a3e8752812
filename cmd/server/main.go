package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lodestar-edu/lodestar/internal"
	"github.com/lodestar-edu/lodestar/internal/ai"
	"github.com/lodestar-edu/lodestar/internal/ai/gemini"
	"github.com/lodestar-edu/lodestar/internal/ai/mock"
	"github.com/lodestar-edu/lodestar/internal/handler"
	"github.com/lodestar-edu/lodestar/internal/jobs"
	"github.com/lodestar-edu/lodestar/internal/metrics"
	"github.com/lodestar-edu/lodestar/internal/middleware"
	"github.com/lodestar-edu/lodestar/internal/repository"
	"github.com/lodestar-edu/lodestar/internal/service"
	"github.com/lodestar-edu/lodestar/internal/todo"
	"github.com/lodestar-edu/lodestar/internal/token"
	"github.com/lodestar-edu/lodestar/internal/university"
	"github.com/lodestar-edu/lodestar/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	queries := repository.New(db)

	// Initialize token manager
	tokens, err := token.NewManager(cfg.SecretKey, cfg.AccessTokenTTL, "lodestar")
	if err != nil {
		return fmt.Errorf("token manager initialization failed: %w", err)
	}

	// Initialize AI counsellor provider
	var counsellorAI ai.Counsellor
	switch cfg.AIProvider {
	case "gemini":
		counsellorAI, err = gemini.New(gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			ProviderConfig: ai.ProviderConfig{
				MaxRetries:     cfg.AIMaxRetries,
				RetryBaseDelay: cfg.AIRetryBaseDelay,
				RequestTimeout: cfg.AIRequestTimeout,
			},
		}, queries, logger)
		if err != nil {
			return fmt.Errorf("gemini provider initialization failed: %w", err)
		}
	default:
		counsellorAI = mock.New()
	}
	logger.Info("AI provider ready", "provider", cfg.AIProvider)

	// Initialize todo store
	var todoStore todo.Store
	switch cfg.TodoStore {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		defer redisClient.Close()
		todoStore = todo.NewRedisStore(redisClient)
	default:
		todoStore = todo.NewMemoryStore()
	}
	logger.Info("Todo store ready", "store", cfg.TodoStore)

	// Initialize university directory client
	universities := university.NewClient(cfg.UniversityAPIURL, logger)

	// Initialize services
	userService := service.NewUserService(queries, tokens, logger)
	profileService := service.NewProfileService(queries, logger)
	recommendationService := service.NewRecommendationService(queries, logger)
	counsellorService := service.NewCounsellorService(queries, counsellorAI, logger)

	// Initialize background worker
	jobWorker, err := worker.New(db, queries, worker.Config{
		Concurrency:       cfg.WorkerConcurrency,
		PollInterval:      cfg.WorkerPollInterval,
		JobTimeout:        cfg.WorkerJobTimeout,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}, logger)
	if err != nil {
		return fmt.Errorf("worker initialization failed: %w", err)
	}
	jobWorker.Register(jobs.NewGenerateRecommendationsHandler(db, queries, counsellorAI, universities, logger))

	if cfg.WorkerEnabled {
		jobWorker.Start(ctx)
		defer jobWorker.Stop()
		logger.Info("Worker started", "concurrency", cfg.WorkerConcurrency)
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(tokens, userService, logger, isSecure)
	guard := middleware.NewRouteGuard(cfg.ProtectedPaths, cfg.AuthPaths, cfg.LoginPath, cfg.LandingPath)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	corsMw := middleware.NewCORSMiddleware(cfg.CORSOrigins)
	metricsAuth := middleware.MetricsAuth(cfg.MetricsUsername, cfg.MetricsPassword)
	authLimiter := middleware.NewAuthRateLimiter(logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, logger, isSecure)
	profileHandler := handler.NewProfileHandler(profileService, logger)
	onboardingHandler := handler.NewOnboardingHandler(userService, profileService, queries, logger)
	universityHandler := handler.NewUniversityHandler(universities, recommendationService, logger)
	counsellorHandler := handler.NewCounsellorHandler(counsellorService, logger)
	todoHandler := handler.NewTodoHandler(todoStore, logger)
	pageHandler, err := handler.NewPageHandler(logger)
	if err != nil {
		return fmt.Errorf("page handler initialization failed: %w", err)
	}

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuth(promhttp.Handler()))

	// Pages. The route guard redirects based on cookie presence before any
	// page renders; real authorization happens on the API routes below.
	mux.HandleFunc("GET /", pageHandler.Home)
	mux.HandleFunc("GET /login", pageHandler.Login)
	mux.HandleFunc("GET /signup", pageHandler.Signup)
	mux.HandleFunc("GET /dashboard", pageHandler.Dashboard)
	mux.HandleFunc("GET /onboarding", pageHandler.Onboarding)
	mux.HandleFunc("GET /profile", pageHandler.Profile)

	// Auth API. Register and login are rate limited per client IP.
	mux.Handle("POST /api/auth/register", authLimiter.LimitRegister(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authLimiter.LimitLogin(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Everything below requires a verified bearer token.
	requireUser := middleware.Stack(authMw.RequireUser)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireUser(h))
	}

	protected("GET /api/auth/me", authHandler.Me)
	protected("POST /api/auth/refresh", authHandler.Refresh)

	protected("GET /api/profile", profileHandler.Get)
	protected("PUT /api/profile", profileHandler.Update)
	protected("DELETE /api/profile", profileHandler.Delete)

	protected("GET /api/onboarding/status", onboardingHandler.Status)
	protected("POST /api/onboarding/complete", onboardingHandler.Complete)
	protected("POST /api/onboarding/skip", onboardingHandler.Skip)

	protected("GET /api/universities/search", universityHandler.Search)
	protected("GET /api/universities/countries", universityHandler.Countries)
	protected("GET /api/universities/recommendations", universityHandler.Recommendations)
	protected("GET /api/universities/{country}", universityHandler.ByCountry)

	protected("POST /api/counsellor/chat", counsellorHandler.Chat)
	protected("GET /api/counsellor/conversations", counsellorHandler.ListConversations)
	protected("GET /api/counsellor/conversations/{id}/messages", counsellorHandler.GetMessages)
	protected("DELETE /api/counsellor/conversations/{id}", counsellorHandler.DeleteConversation)
	protected("GET /api/counsellor/careers", counsellorHandler.Careers)
	protected("GET /api/counsellor/courses", counsellorHandler.Courses)

	protected("GET /api/todos", todoHandler.List)
	protected("POST /api/todos", todoHandler.Create)
	protected("GET /api/todos/{id}", todoHandler.Get)
	protected("PATCH /api/todos/{id}", todoHandler.Update)
	protected("POST /api/todos/{id}/toggle", todoHandler.Toggle)
	protected("DELETE /api/todos/{id}", todoHandler.Delete)

	// Outer chain, applied to every request. WithUser must precede the
	// guard and RequireUser; the guard must precede page handlers.
	chain := middleware.Stack(
		loggingMw.Handler,
		metrics.Middleware,
		securityMw.Handler,
		corsMw.Handler,
		authMw.WithUser,
		guard.Handler,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: chain(mux),
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
