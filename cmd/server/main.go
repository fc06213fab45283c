package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/assessment-session-service/internal/cache"
	"github.com/SAP-F-2025/assessment-session-service/internal/config"
	"github.com/SAP-F-2025/assessment-session-service/internal/handlers"
	"github.com/SAP-F-2025/assessment-session-service/internal/judge"
	"github.com/SAP-F-2025/assessment-session-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/assessment-session-service/internal/services"
	"github.com/SAP-F-2025/assessment-session-service/internal/utils"
	"github.com/SAP-F-2025/assessment-session-service/internal/validator"
	"github.com/SAP-F-2025/assessment-session-service/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// =========================================================================
	// Configuration

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.IsProduction())
	slog.SetDefault(logger)

	validate := validator.New()
	if err := validate.ValidateStruct(cfg); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// =========================================================================
	// Storage

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.AutoMigrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	caches := cache.NewCacheManager(redisClient, logger)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}

	repos := services.Repositories{
		Assessments:     postgres.NewAssessmentPostgreSQL(db, caches, cfg.CacheTTL),
		Schedules:       postgres.NewSchedulePostgreSQL(db, caches, cfg.CacheTTL),
		QuizAttempts:    postgres.NewQuizAttemptPostgreSQL(db),
		CodeSubmissions: postgres.NewCodeSubmissionPostgreSQL(db),
	}
	judgeClient := judge.NewClient(cfg.JudgeBaseURL, cfg.JudgeTimeout, logger)

	serviceManager := services.NewServiceManager(cfg, repos, judgeClient, caches, publisher, validate, logger)

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go serviceManager.Sessions().RunReaper(reaperCtx)

	// =========================================================================
	// HTTP

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlerLogger := utils.NewSlogLogger(logger)
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(handlerLogger), utils.ContextLogger(handlerLogger))
	handlers.NewHandlerManager(serviceManager, handlerLogger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		logger.Info("Start shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err)
			server.Close()
		}
	}

	stopReaper()
	serviceManager.Sessions().CloseAll()
	if err := publisher.Close(); err != nil {
		logger.Warn("Failed to close event publisher", "error", err)
	}
	logger.Info("Server stopped")
}
