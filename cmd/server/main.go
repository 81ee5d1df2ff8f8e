package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cartpod/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"cartpod/internal/auth"
	"cartpod/internal/cache"
	"cartpod/internal/config"
	"cartpod/internal/db"
	"cartpod/internal/handler"
	"cartpod/internal/jobs"
	"cartpod/internal/logging"
	"cartpod/internal/metrics"
	"cartpod/internal/notify"
	"cartpod/internal/repository"
	"cartpod/internal/router"
	"cartpod/internal/service"
	"cartpod/internal/storage"
)

// @title Cartpod API
// @version 1.0
// @description Cart pod and food cart directory with owner/admin authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database init")
	}
	if err := db.Migrate(gormDB); err != nil {
		log.WithError(err).Fatal("database migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log)
	defer cacheClient.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	cartPodRepo := repository.NewCartPodRepository(gormDB)
	foodCartRepo := repository.NewFoodCartRepository(gormDB)

	// Initialize auth components
	tokens := auth.NewTokenService(cfg.JWTSecret)

	var notifier notify.Notifier = notify.Disabled{Log: log}
	if cfg.MailEnabled() {
		notifier = notify.NewSMTPMailer(cfg, log)
	} else {
		log.Warn("SMTP credentials not set, password reset emails are disabled")
	}

	var images storage.ImageUploader
	if cfg.UploadsEnabled() {
		store, err := storage.NewS3ImageStore(ctx, cfg, log)
		if err != nil {
			log.WithError(err).Fatal("image storage init")
		}
		images = store
	} else {
		log.Warn("S3_BUCKET not set, image uploads are disabled")
	}

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient, cfg.UserCacheTTL, appMetrics, log)
	authService := service.NewAuthService(userService, tokens, cfg.SessionTokenTTL, appMetrics, log)
	resetService := service.NewPasswordResetService(userRepo, userService, tokens, notifier, cfg.ResetTokenTTL, appMetrics, log)
	cartPodService := service.NewCartPodService(cartPodRepo, cacheClient, log)
	foodCartService := service.NewFoodCartService(foodCartRepo, cacheClient, log)

	sweeper, err := jobs.NewResetTokenSweeper(cfg.ResetSweepSchedule, resetService, log)
	if err != nil {
		log.WithError(err).Fatal("reset token sweeper")
	}
	sweeper.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, router.Deps{
		Log:             log,
		AuthService:     authService,
		Metrics:         appMetrics,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AuthHandler:     handler.NewAuthHandler(authService, resetService),
		UserHandler:     handler.NewUserHandler(userService),
		CartPodHandler:  handler.NewCartPodHandler(cartPodService, foodCartService),
		FoodCartHandler: handler.NewFoodCartHandler(foodCartService, images),
		HealthHandler: handler.NewHealthHandler(
			func(ctx context.Context) error { return db.Ping(ctx, gormDB) },
			cacheClient.Ping,
			log,
		),
	})

	addr := ":" + cfg.ServerPort
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server start")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	sweeper.Stop(shutdownCtx)
	closeDB(gormDB)
}

func closeDB(gormDB *gorm.DB) {
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
