package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/trusthire/backend/internal/api/handlers"
	"github.com/trusthire/backend/internal/apiclient"
	"github.com/trusthire/backend/internal/cache/memory"
	"github.com/trusthire/backend/internal/detector/ai"
	"github.com/trusthire/backend/internal/extract"
	"github.com/trusthire/backend/internal/limiter"
	"github.com/trusthire/backend/internal/metrics"
	"github.com/trusthire/backend/internal/middleware/ratelimit"
	"github.com/trusthire/backend/internal/middleware/security"
	"github.com/trusthire/backend/internal/middleware/validation"
	"github.com/trusthire/backend/internal/scoring"
	"github.com/trusthire/backend/internal/sources"
	"github.com/trusthire/backend/internal/storage/sqlite"
	"github.com/trusthire/backend/internal/verify"
	"github.com/trusthire/backend/pkg/config"
	appLogger "github.com/trusthire/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting TrustHire verification API server")
	metrics.Init()

	log := appLogger.GetLogger()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path, log)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	apiCache := memory.New(cfg.Cache.MaxEntries, log)
	client := apiclient.New(apiclient.Config{
		Cache:     apiCache,
		TTLFor:    cfg.Cache.TTLFor,
		UserAgent: "TrustHire/1.0 (+https://trusthire.dev)",
		Logger:    log,
	})

	perClient, global := buildLimiters(cfg, log)

	orchestrator := verify.NewOrchestrator(buildAdapters(cfg, client, log))

	engine, err := scoring.NewEngine(scoring.Config{
		Weights: cfg.Scoring.Weights,
		Neutral: cfg.Scoring.NeutralScore,
		Logger:  log,
	})
	if err != nil {
		appLogger.Fatal("Failed to build scoring engine", zap.Error(err))
	}

	var detector *ai.Client
	if cfg.Detector.APIKey != "" {
		detector = ai.NewClient(ai.Config{
			APIKey:      cfg.Detector.APIKey,
			Model:       cfg.Detector.Model,
			Temperature: cfg.Detector.Temperature,
			MaxTokens:   cfg.Detector.MaxTokens,
			Timeout:     time.Duration(cfg.Detector.TimeoutSec) * time.Second,
			Logger:      log,
		})
	} else {
		appLogger.Warn("No detector API key configured; AI content scores neutral")
	}

	service := verify.NewService(verify.ServiceConfig{
		Orchestrator: orchestrator,
		Engine:       engine,
		Detector:     detector,
		Store:        sqliteClient,
		Logger:       log,
	})

	extractor := extract.New(log)

	verifyHandler := handlers.NewVerifyHandler(service, extractor)
	reportHandler := handlers.NewReportHandler(sqliteClient)
	adminHandler := handlers.NewAdminHandler(apiCache)
	wsHandler := handlers.NewWebSocketHandler(service)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(validation.Middleware(validation.Config{
		MaxBodySize: cfg.Server.BodyLimit,
		Logger:      log,
	}))

	api := app.Group("/api/v1")
	api.Use(ratelimit.Middleware(ratelimit.Config{
		PerClient: perClient,
		Global:    global,
		Logger:    log,
	}))

	api.Post("/verify", verifyHandler.HandleVerify)
	api.Post("/verify/text", verifyHandler.HandleVerifyText)
	api.Get("/reports", reportHandler.ListReports)
	api.Get("/reports/:id", reportHandler.GetReport)
	api.Get("/admin/cache/stats", adminHandler.CacheStats)
	api.Post("/admin/cache/clear", adminHandler.ClearCache)

	api.Use("/verify/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/verify/stream", websocket.New(wsHandler.HandleConnection))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	app.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})
	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// buildLimiters prefers Redis-backed windows when an address is
// configured so limits hold across replicas, with in-process windows as
// the fallback.
func buildLimiters(cfg *config.Config, log *zap.Logger) (limiter.Limiter, limiter.Limiter) {
	window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second

	perClientCfg := limiter.Config{Limit: cfg.RateLimit.Limit, Window: window, Logger: log}
	globalCfg := limiter.Config{Limit: cfg.RateLimit.GlobalLimit, Window: window, Logger: log}

	if cfg.Redis.Addr != "" {
		redisClient, err := limiter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, rate limiting in process memory", zap.Error(err))
		} else {
			return limiter.NewRedisWindow(redisClient, perClientCfg), limiter.NewRedisWindow(redisClient, globalCfg)
		}
	}

	return limiter.NewSlidingWindow(perClientCfg), limiter.NewSlidingWindow(globalCfg)
}

// buildAdapters assembles the source fan-out. Keyless sources are always
// on; keyed ones join only when their credential is configured.
func buildAdapters(cfg *config.Config, client *apiclient.Client, log *zap.Logger) verify.Config {
	opts := sources.Options{
		Client:  client,
		Timeout: time.Duration(cfg.Sources.TimeoutSec) * time.Second,
		Logger:  log,
	}

	registry := []sources.Adapter{
		sources.NewGLEIF(opts),
		sources.NewSEC(cfg.Sources.SECContactEmail, opts),
	}

	education := []sources.Adapter{
		sources.NewOpenAlex(cfg.Sources.OpenAlexEmail, opts),
	}
	if cfg.Sources.CollegeScorecardKey != "" {
		education = append(education, sources.NewScorecard(cfg.Sources.CollegeScorecardKey, opts))
	} else {
		appLogger.Warn("No College Scorecard key configured; US college lookups disabled")
	}

	return verify.Config{
		Registry:   registry,
		Education:  education,
		Developer:  sources.NewGitHub(cfg.Sources.GitHubToken, opts),
		Archive:    sources.NewWayback(opts),
		Search:     sources.NewSearch(cfg.Sources.SerpAPIKey, opts),
		Email:      sources.NewEmail(nil, opts),
		Phone:      sources.NewPhone(cfg.Sources.NumverifyKey, "US", opts),
		RunTimeout: time.Duration(cfg.Verify.RunTimeoutSec) * time.Second,
		Logger:     log,
	}
}
