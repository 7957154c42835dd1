// Package main is the entrypoint for the propscribe API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propscribe/propscribe/internal/accounts"
	"github.com/propscribe/propscribe/internal/api"
	"github.com/propscribe/propscribe/internal/api/handler"
	mw "github.com/propscribe/propscribe/internal/api/middleware"
	"github.com/propscribe/propscribe/internal/apikeys"
	"github.com/propscribe/propscribe/internal/auth"
	"github.com/propscribe/propscribe/internal/cache"
	"github.com/propscribe/propscribe/internal/completion"
	"github.com/propscribe/propscribe/internal/config"
	"github.com/propscribe/propscribe/internal/listing"
	"github.com/propscribe/propscribe/internal/llm"
	"github.com/propscribe/propscribe/internal/location"
	"github.com/propscribe/propscribe/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"llm_provider", cfg.LLM.Provider,
		"auth_resolver", cfg.Auth.Resolver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create the chat model client
	chatClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}
	slog.Info("llm client initialized", "provider", chatClient.Name())

	// 6. Domain services
	pgStore := store.NewPostgresStore(pool)

	accountService := accounts.NewService(pgStore, cfg.Auth.IDEnvPrefix, logger)
	keyService := apikeys.NewService(pgStore, cfg.Auth.IDEnvPrefix, logger)
	tracker := completion.NewTracker(pgStore, redisCache, cfg.Auth.IDEnvPrefix, logger)

	locationService := location.NewService(
		location.NewHTTPPostcodesClient(cfg.Geo.PostcodesBaseURL, cfg.Geo.Timeout),
		location.NewHTTPPlacesClient(cfg.Geo.PlacesBaseURL, cfg.Geo.PlacesAPIKey, cfg.Geo.Timeout),
	)

	listingService := listing.NewService(locationService, tracker, chatClient,
		cfg.LLM.OpenAI.Model, cfg.LLM.InferenceTimeout, logger)

	// 7. Auth resolvers
	// End-user tokens and inter-service tokens are signed with different
	// Google cert sets, so each resolver gets its own verifier.
	userVerifier := auth.NewGoogleVerifier(cfg.Auth.ProjectID)
	systemVerifier := auth.NewGoogleOAuth2Verifier(cfg.Auth.ProjectID)
	userResolver := auth.NewUserResolver(userVerifier, accountService, cfg.Auth.IDEnvPrefix, logger)
	apiKeyResolver := auth.NewAPIKeyResolver(keyService)

	resolvers := []auth.Resolver{
		userResolver,
		apiKeyResolver,
		auth.NewCombinedResolver(userResolver, apiKeyResolver),
		auth.NewSystemResolver(systemVerifier, cfg.Auth.ProjectID, cfg.Auth.ComponentName),
	}
	if !cfg.IsProduction() {
		resolvers = append(resolvers, auth.NewMockResolver())
	}

	dispatcher, err := auth.NewDispatcher(cfg.Auth.ResolverOverride, logger, resolvers...)
	if err != nil {
		return fmt.Errorf("build auth dispatcher: %w", err)
	}

	// 8. Build router with dependencies
	deps := api.Dependencies{
		Auth:       mw.NewAuth(dispatcher, cfg.Auth.Resolver, logger),
		Onboarding: mw.NewOnboarding(accountService, logger),
		RateLimit:  mw.NewRateLimit(redisCache, 60),

		HealthHandler:          handler.NewHealthHandler(pgStore, redisCache),
		GenerateListingHandler: handler.NewGenerateListingHandler(listingService),
		RecentCompletions:      handler.NewRecentCompletionsHandler(tracker),
		GetAccountHandler:      handler.NewGetAccountHandler(accountService),
		AgreeTermsHandler:      handler.NewAgreeTermsHandler(accountService),
		CreateKeyHandler:       handler.NewCreateKeyHandler(keyService),
		ListKeysHandler:        handler.NewListKeysHandler(keyService),
		RevokeKeyHandler:       handler.NewRevokeKeyHandler(keyService),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.LLM.InferenceTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
