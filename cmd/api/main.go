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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/michelvankessel/nedcloud-website/internal/auth"
	"github.com/michelvankessel/nedcloud-website/internal/config"
	"github.com/michelvankessel/nedcloud-website/internal/database"
	"github.com/michelvankessel/nedcloud-website/internal/handlers"
	middlewareCustom "github.com/michelvankessel/nedcloud-website/internal/middleware"
	"github.com/michelvankessel/nedcloud-website/internal/models"
	"github.com/michelvankessel/nedcloud-website/internal/ratelimit"
	"github.com/michelvankessel/nedcloud-website/internal/repositories"
	"github.com/michelvankessel/nedcloud-website/internal/routes"
	"github.com/michelvankessel/nedcloud-website/internal/services"
	pkgauth "github.com/michelvankessel/nedcloud-website/pkg/auth"
	pkghttp "github.com/michelvankessel/nedcloud-website/pkg/http"
	pkglogger "github.com/michelvankessel/nedcloud-website/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	postRepo := repositories.NewPostRepository(db)
	serviceRepo := repositories.NewServiceRepository(db)
	contactRepo := repositories.NewContactRepository(db)

	// Initialize token and TOTP managers
	tokenManager := auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry)
	totpManager := auth.NewTOTPManager(cfg.Auth.TOTPIssuer)

	// Audit logging
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Fixed-window rate limiter with a periodic sweep
	limiter := ratelimit.New(ratelimit.Config{
		Auth:          ratelimit.Limit{Max: cfg.RateLimit.AuthMaxRequests, Window: cfg.RateLimit.Window},
		API:           ratelimit.Limit{Max: cfg.RateLimit.APIMaxRequests, Window: cfg.RateLimit.Window},
		SweepInterval: cfg.RateLimit.SweepInterval,
	}, logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, totpManager, cfg.Auth.EncryptionKey, logger, auditLogger)
	twoFactorService := services.NewTwoFactorService(userRepo, totpManager, cfg.Auth.EncryptionKey, cfg.Auth.BackupCodeCount, logger, auditLogger)
	contentService := services.NewContentService(postRepo, serviceRepo, contactRepo, logger)

	// Initialize handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	twoFactorHandler := handlers.NewTwoFactorHandler(twoFactorService)
	contentHandler := handlers.NewContentHandler(contentService)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, twoFactorHandler, contentHandler, tokenManager, limiter, ipConfig, auditLogger)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}

		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "up",
		})
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start rate limit sweep
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go limiter.Start(sweepCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	sweepCancel()
	limiter.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Admin",
		Role:         models.RoleAdmin,
	}

	_, err = userRepo.Create(ctx, admin)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
