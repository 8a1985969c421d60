package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"carenest/internal/access"
	"carenest/internal/analytics"
	"carenest/internal/cache"
	"carenest/internal/config"
	"carenest/internal/database"
	"carenest/internal/handlers"
	"carenest/internal/logging"
	"carenest/internal/repository"
	"carenest/internal/security"
	"carenest/internal/service"
)

const serviceName = "carenest"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("database connection established", zap.String("type", cfg.DatabaseType))

	applied, err := db.RunMigrations(ctx, cfg.MigrationsPath)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations completed", zap.Strings("applied", applied))

	store, err := newCacheStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	libraryCache := cache.New(store, cfg.Cache.TTL, logger.Named("cache"))
	defer libraryCache.Close()
	logger.Info("cache ready", zap.String("backend", cfg.Cache.Backend))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)
	eventRepo := repository.NewEventRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)

	resolver := access.NewResolver(userRepo, childRepo)
	aggregator := analytics.NewAggregator(behaviorRepo, activityRepo, logger.Named("analytics"))

	mailer, err := service.NewEmailService(ctx, cfg.SESRegion, cfg.SESFromEmail, "CareNest", cfg.AppURL, logger.Named("email"))
	if err != nil {
		return fmt.Errorf("initialize email: %w", err)
	}
	if !mailer.IsEnabled() {
		logger.Warn("SES_FROM_EMAIL not set, caregiver invites will not be emailed")
	}

	// Services
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(userRepo, tokens, logger)
	userService := service.NewUserService(userRepo, resolver, mailer, logger)
	childService := service.NewChildService(childRepo, resolver, cfg.Location)
	behaviorService := service.NewBehaviorService(behaviorRepo, resolver, cfg.Location)
	activityService := service.NewActivityService(activityRepo, resolver, aggregator, cfg.Location, logger)
	eventService := service.NewEventService(eventRepo, childRepo, resolver, cfg.Location)
	recordService := service.NewRecordService(repository.NewDocumentRepository(db), repository.NewNoteRepository(db),
		repository.NewProviderRepository(db), resolver, cfg.Location)
	libraryService := service.NewLibraryService(libraryRepo, libraryCache, cfg.Cache.Prefix, cfg.Cache.TTL, logger)
	analyticsService := service.NewAnalyticsService(aggregator, resolver, userRepo, childRepo, libraryRepo, cfg.Location)
	inspirationService := service.NewInspirationService(repository.NewInspirationRepository(db), cfg.Location, logger)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}
	redirectBase := cfg.OAuthRedirectBaseURL
	if redirectBase == "" {
		redirectBase = cfg.AppURL
	}

	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.NewMiddleware(authService, limiter, logger), handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService, oauthProviders, redirectBase, logger),
		Users:    handlers.NewUserHandler(userService, logger),
		Admin:    handlers.NewAdminHandler(userService, analyticsService, libraryService, logger),
		Children: handlers.NewChildHandler(childService, behaviorService, analyticsService, logger),
		Activity: handlers.NewActivityHandler(activityService, logger),
		Events:   handlers.NewEventHandler(eventService, logger),
		Records:  handlers.NewRecordHandler(recordService, logger),
		Library:  handlers.NewLibraryHandler(libraryService, logger),
		Inspire:  handlers.NewInspirationHandler(inspirationService, logger),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Publish scheduled inspirations from earlier days
	go inspirationService.RunPublisher(ctx, time.Hour)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newCacheStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	if cfg.Backend != "redis" {
		return cache.NewMemoryStore(cfg.MaxKeys, cfg.CheckPeriod), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return cache.NewRedisStore(client), nil
}
