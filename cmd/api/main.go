package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/config"
	"github.com/noah-isme/capstone-portal-api/internal/database"
	"github.com/noah-isme/capstone-portal-api/internal/handler"
	"github.com/noah-isme/capstone-portal-api/internal/middleware"
	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/router"
	"github.com/noah-isme/capstone-portal-api/internal/service"
	cloud "github.com/noah-isme/capstone-portal-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, submission events are only logged")
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cloudinary client")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	events := service.NewNATSPublisher(natsConn, cfg.EventSubjectPrefix, logger)
	uploadService := service.NewUploadService(storage, uploadRepo, cfg.UploadMaxMB, logger)
	dashboardService := service.NewGroupDashboardService(groupRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, groupRepo, uploadService, events, dashboardService, validate, logger)
	feedbackService := service.NewFeedbackService(submissionRepo, uploadService, events, dashboardService, validate, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, redisClient, cfg.AnnouncementCacheTTL, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 4 << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowedOrigins: cfg.AllowedOrigins})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler:     handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, feedbackService, logger),
		VersionHandler:        handler.NewVersionHandler(submissionService, logger),
		GroupDashboardHandler: handler.NewGroupDashboardHandler(dashboardService, logger),
		AnnouncementHandler:   handler.NewAnnouncementHandler(announcementService, logger),
		UploadHandler:         handler.NewUploadHandler(uploadService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
		TurnInLimiter:         middleware.RateLimit("turn-in", cfg.TurnInRateLimit, cfg.TurnInRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
