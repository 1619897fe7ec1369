package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/johnquangdev/meeting-intelligence/docs"
	"github.com/johnquangdev/meeting-intelligence/internal/adapter/handler"
	"github.com/johnquangdev/meeting-intelligence/internal/adapter/repository"
	"github.com/johnquangdev/meeting-intelligence/internal/adapter/repository/memory"
	"github.com/johnquangdev/meeting-intelligence/internal/domain/repositories"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/external/meetingbot"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/messaging"
	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/bot"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/intelligence"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/transcript"
	"github.com/johnquangdev/meeting-intelligence/internal/usecase/worker"
	pkgai "github.com/johnquangdev/meeting-intelligence/pkg/ai"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
	"github.com/johnquangdev/meeting-intelligence/pkg/jwt"
	"github.com/johnquangdev/meeting-intelligence/pkg/metrics"
	pkgvalidator "github.com/johnquangdev/meeting-intelligence/pkg/validator"
)

// @title           Meeting Intelligence API
// @version         1.0
// @description     Sends a notetaker bot into online meetings and turns the recording into transcripts,
// @description     summaries, action items, decisions, follow-up drafts and answers.

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

type repos struct {
	meetings    repositories.MeetingRepository
	transcripts repositories.TranscriptRepository
	artifacts   repositories.ArtifactRepository
	chat        repositories.ChatRepository
	settings    repositories.SettingsRepository
	jobs        repositories.PipelineJobRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	var healthChecks = map[string]handler.HealthCheck{}

	// Persistence
	var r repos
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using in-memory repositories, data is lost on restart")
		store := memory.NewStore()
		r = repos{store.Meetings(), store.Transcripts(), store.Artifacts(), store.Chat(), store.Settings(), store.Jobs()}
	default:
		db, err := database.NewPostgresDB(cfg, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.CloseDB(db, logger)
		if cfg.Database.Migrate {
			if err := database.Migrate(db, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		r = postgresRepos(db)
		healthChecks["database"] = func(context.Context) error { return database.Ping(db) }
	}

	// Per-meeting locks
	var locker bot.Locker = cache.NewMemoryLocker(cfg.Redis.LockTTL, cfg.Redis.LockWait)
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = cache.NewRedisLocker(redisClient, cfg.Redis.LockTTL, cfg.Redis.LockWait)
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		logger.Warn("REDIS_HOST not set, meeting locks are local to this process")
	}

	// Raw payload archive
	var archive bot.Archive
	if cfg.Storage.Endpoint != "" {
		minioArchive, err := storage.NewMinIOArchive(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
		archive = minioArchive
	}

	// Status events
	var publisher bot.StatusPublisher = messaging.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := messaging.Connect(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.Error(err))
		}
		defer nc.Drain()
		publisher = messaging.NewStatusPublisher(nc, cfg.NATS.SubjectPrefix, logger)
	}

	// External services
	stt := transcript.NewService(transcript.NewAssemblyAIProvider(pkgai.NewAssemblyAIClient(cfg.AssemblyAI)), logger)
	llm := pkgai.NewGroqClient(cfg.Groq)
	botClient := meetingbot.NewClient(cfg.Bot, cfg.BotWebhookURL())

	orchestrator := bot.NewOrchestrator(bot.Deps{
		Bot:            botClient,
		Meetings:       r.meetings,
		Transcripts:    r.transcripts,
		Settings:       r.settings,
		Jobs:           r.jobs,
		Transcriber:    stt,
		Locker:         locker,
		Archive:        archive,
		Publisher:      publisher,
		Verifier:       pkgai.NewSignatureVerifier(cfg.Bot.WebhookSecret),
		Metrics:        m,
		Logger:         logger,
		DefaultBotName: cfg.Bot.DefaultName,
		MaxDuration:    cfg.Bot.MaxDuration,
	})
	if cfg.Bot.WebhookSecret == "" {
		logger.Warn("BOT_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	intel := intelligence.NewService(intelligence.Deps{
		LLM:         llm,
		Meetings:    r.meetings,
		Transcripts: r.transcripts,
		Artifacts:   r.artifacts,
		Chat:        r.chat,
		Settings:    r.settings,
		Metrics:     m,
		Logger:      logger,
		MaxParallel: cfg.Pipeline.MaxParallel,
	})

	pool := worker.NewPool(r.jobs, intel, orchestrator, m, logger, worker.OptionsFromConfig(cfg.Pipeline))
	if err := pool.Start(ctx); err != nil {
		logger.Fatal("failed to start pipeline workers", zap.Error(err))
	}

	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)
	router := handler.NewRouter(cfg, jwtManager,
		handler.NewBotWebhookHandler(orchestrator, logger),
		handler.NewMeetingHandler(orchestrator, intel, logger),
		handler.NewIntelligenceHandler(intel, logger),
		registry,
	)
	for name, check := range healthChecks {
		router.AddHealthCheck(name, check)
	}
	router.Setup(e)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server", zap.String("addr", addr), zap.String("environment", cfg.Environment))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := pool.Stop(); err != nil {
		logger.Error("worker pool stop failed", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func postgresRepos(db *gorm.DB) repos {
	return repos{
		meetings:    repository.NewMeetingRepository(db),
		transcripts: repository.NewTranscriptRepository(db),
		artifacts:   repository.NewArtifactRepository(db),
		chat:        repository.NewChatRepository(db),
		settings:    repository.NewSettingsRepository(db),
		jobs:        repository.NewPipelineJobRepository(db),
	}
}
