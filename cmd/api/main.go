package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/bloodsight/bloodsight-api/config"
	"github.com/bloodsight/bloodsight-api/internal/handler"
	authHandler "github.com/bloodsight/bloodsight-api/internal/handler/auth"
	intakeHandler "github.com/bloodsight/bloodsight-api/internal/handler/intake"
	reportHandler "github.com/bloodsight/bloodsight-api/internal/handler/report"
	userHandler "github.com/bloodsight/bloodsight-api/internal/handler/user"
	"github.com/bloodsight/bloodsight-api/internal/email"
	"github.com/bloodsight/bloodsight-api/internal/middleware"
	"github.com/bloodsight/bloodsight-api/internal/model"
	"github.com/bloodsight/bloodsight-api/internal/repository"
	"github.com/bloodsight/bloodsight-api/internal/repository/postgres"
	"github.com/bloodsight/bloodsight-api/internal/router"
	authService "github.com/bloodsight/bloodsight-api/internal/service/auth"
	eventService "github.com/bloodsight/bloodsight-api/internal/service/event"
	intakeService "github.com/bloodsight/bloodsight-api/internal/service/intake"
	reportService "github.com/bloodsight/bloodsight-api/internal/service/report"
	userService "github.com/bloodsight/bloodsight-api/internal/service/user"
	"github.com/bloodsight/bloodsight-api/internal/storage"
	pkgauth "github.com/bloodsight/bloodsight-api/pkg/auth"
	"github.com/bloodsight/bloodsight-api/pkg/logger"
	"github.com/bloodsight/bloodsight-api/pkg/messaging/redis"
	"github.com/bloodsight/bloodsight-api/pkg/metrics"
	"github.com/bloodsight/bloodsight-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	otpRepo := postgres.NewOTPRepository(baseRepo)
	reportRepo := postgres.NewReportRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	// Message broker; events fall back to the outbox worker if Redis
	// is briefly unavailable at startup.
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Upload store, encrypted at rest when a key is configured.
	var encryptor security.Encryptor
	if cfg.Uploads.EncryptionKey != "" {
		key, err := decodeKey(cfg.Uploads.EncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid upload encryption key")
		}
		encryptor, err = security.NewAESEncryptor(key)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init upload encryption")
		}
	}
	store, err := storage.NewLocalStore(cfg.Uploads.Dir, encryptor)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init upload store")
	}

	// Services
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryDays) * 24 * time.Hour,
	})
	hasher := security.NewBcryptHasher(12)

	var emailSvc email.Service
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, appLogger)
	} else {
		emailSvc = email.NewNoopService(appLogger)
	}

	appMetrics := metrics.New("bloodsight")
	eventSvc := eventService.NewEventService(outboxRepo, broker, appLogger)
	authSvc := authService.NewService(userRepo, otpRepo, jwtSvc, hasher, emailSvc, eventSvc, appLogger)
	userSvc := userService.NewService(userRepo)
	reportSvc := reportService.NewService(reportRepo, userRepo, store, eventSvc, appMetrics, appLogger)
	intakeSvc := intakeService.NewService()

	if cfg.Demo.Enabled {
		seedDemoUser(cfg, userRepo, hasher, appLogger)
	}

	// Handlers and router
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, authSvc)
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}

	r := router.New(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		userHandler.NewHandler(userSvc),
		reportHandler.NewHandler(reportSvc),
		intakeHandler.NewHandler(intakeSvc, reportSvc, store),
		handler.NewHandler(db),
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimitRPS:     cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst:   cfg.RateLimit.Burst,
			CORSConfig:       corsConfig,
			MetricsPrefix:    "bloodsight_http",
			ReleaseMode:      cfg.Server.ReleaseMode,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

// seedDemoUser makes sure the demo account exists so the product works
// out of the box.
func seedDemoUser(cfg *config.Config, userRepo repository.UserRepository, hasher security.PasswordHasher, appLogger *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := userRepo.GetByEmail(ctx, cfg.Demo.Email); err == nil {
		return
	}

	hash, err := hasher.Hash(cfg.Demo.Password)
	if err != nil {
		appLogger.Error(err, "failed to hash demo password")
		return
	}

	demo := &model.User{
		Base: model.Base{
			ID: uuid.New(),
		},
		Email:        cfg.Demo.Email,
		Name:         cfg.Demo.Name,
		PasswordHash: hash,
		Status:       model.UserStatusActive,
	}
	if err := userRepo.Create(ctx, demo); err != nil {
		appLogger.Error(err, "failed to seed demo user")
		return
	}
	appLogger.Info("seeded demo user", "email", cfg.Demo.Email)
}

func decodeKey(key string) ([]byte, error) {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if len(key) == 32 {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("encryption key must be 32 bytes raw or 64 hex chars")
}
