package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"userbase/internal/authz"
	"userbase/internal/caching"
	"userbase/internal/config"
	"userbase/internal/handlers"
	"userbase/internal/jobs/background"
	"userbase/internal/middleware"
	"userbase/internal/models"
	"userbase/internal/repositories"
	"userbase/internal/services"
	"userbase/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Avatar object storage
	avatarSvc, err := services.NewAvatarService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize avatar storage: %v", err)
	}
	if err := avatarSvc.EnsureBucketExists(ctx); err != nil {
		log.Printf("WARN: could not ensure avatar bucket exists: %v", err)
	}

	// Create repositories and services
	userRepo := repositories.NewUserRepo(pool)
	hasher := services.NewBcryptHasher(0)
	tokenSvc := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := services.NewAuthService(userRepo, hasher, tokenSvc, cacheSvc)
	userSvc := services.NewUserService(userRepo, hasher, cacheSvc)

	googleVerifier, err := services.NewGoogleVerifier(ctx, cfg.GoogleClientID)
	if err != nil {
		log.Fatalf("Failed to initialize Google verifier: %v", err)
	}
	defer googleVerifier.Close()

	if err := seedAdmin(ctx, userRepo, hasher, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// Background refresh of the inactive users report
	scheduler, err := background.NewJobScheduler(userSvc, cfg.ReportRefreshInterval)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, googleVerifier)
	userHandlers := handlers.NewUserHandlers(userSvc)
	avatarHandlers := handlers.NewAvatarHandlers(avatarSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoint (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)

	v1 := e.Group("/v1")

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/google", authHandlers.GoogleLogin)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(tokenSvc))

	protected.GET("/me", userHandlers.Me)
	protected.PATCH("/me", userHandlers.UpdateMe)
	protected.PUT("/me/avatar", avatarHandlers.UploadAvatar)
	protected.DELETE("/me/avatar", avatarHandlers.DeleteAvatar)

	adminOnly := middleware.RequireDecision(authz.CanListUsers)
	protected.GET("/users", userHandlers.ListUsers, adminOnly)
	protected.GET("/users/inactive", userHandlers.ListInactive, middleware.RequireDecision(authz.CanViewInactiveReport))
	protected.POST("/users", userHandlers.CreateUser, middleware.RequireDecision(authz.CanCreateUser))
	protected.GET("/users/:id", userHandlers.GetUser)
	protected.PATCH("/users/:id", userHandlers.UpdateUser)
	protected.DELETE("/users/:id", userHandlers.DeleteUser, middleware.RequireDecision(authz.CanDeleteUser))
	protected.GET("/users/:id/avatar-url", avatarHandlers.GetAvatarURL)

	log.Printf("userbase server v%s starting on port %d", version, cfg.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}

// seedAdmin provisions the initial administrator account when configured and
// not already present.
func seedAdmin(ctx context.Context, userRepo repositories.UserRepository, hasher services.PasswordHasher, cfg *config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, cfg.SeedAdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	digest, err := hasher.Hash(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.New(),
		Name:         "Administrator",
		Email:        cfg.SeedAdminEmail,
		PasswordHash: digest,
		Role:         models.RoleAdmin,
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Printf("Seeded admin user %s", cfg.SeedAdminEmail)
	return nil
}
