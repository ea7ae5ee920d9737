package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/sla-guard/internal/api/http"
	"github.com/spec-kit/sla-guard/internal/api/http/handlers"
	"github.com/spec-kit/sla-guard/internal/auth"
	"github.com/spec-kit/sla-guard/internal/config"
	"github.com/spec-kit/sla-guard/internal/events"
	"github.com/spec-kit/sla-guard/internal/features"
	"github.com/spec-kit/sla-guard/internal/ingress"
	"github.com/spec-kit/sla-guard/internal/observability"
	"github.com/spec-kit/sla-guard/internal/orchestrator"
	"github.com/spec-kit/sla-guard/internal/persistence"
	"github.com/spec-kit/sla-guard/internal/queueproj"
	"github.com/spec-kit/sla-guard/internal/repository"
	"github.com/spec-kit/sla-guard/internal/scoring"
	"github.com/spec-kit/sla-guard/internal/service"
	"github.com/spec-kit/sla-guard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	if err := observability.RegisterMetrics(registry); err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	workflowRepo := repository.NewWorkflowRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	projector := queueproj.NewProjector()
	extractor := features.NewExtractor(features.NewSystemAggregates(projector))

	var scorer scoring.Scorer
	if cfg.Scorer.EndpointURL != "" {
		scorer = scoring.NewHTTPScorer(cfg.Scorer.EndpointURL, cfg.Scorer.Timeout())
	} else {
		logger.Warn("no scorer endpoint configured, using heuristic scorer")
		scorer = scoring.NewHeuristicScorer()
	}

	notificationService := service.NewNotificationService(dispatcher, cfg.Notification, logger)
	worker.StartNotificationWorker(notificationService, logger)
	executor := service.NewWebhookExecutor(cfg.Orchestrator.ActionEndpointURL, logger)

	engine := orchestrator.NewEngine(cfg.Orchestrator, cfg.Scorer, cfg.SLAPolicy, orchestrator.Dependencies{
		TicketRepo:     ticketRepo,
		AssessmentRepo: assessmentRepo,
		WorkflowRepo:   workflowRepo,
		Extractor:      extractor,
		Scorer:         scorer,
		Executor:       executor,
		Notifier:       notificationService,
		Dispatcher:     dispatcher,
		Projector:      projector,
	}, logger)
	engine.Start()
	defer engine.Stop()

	if err := engine.Resume(ctx); err != nil {
		logger.Fatal("failed to resume workflows", zap.Error(err))
	}

	var dedupe ingress.Deduper
	if !cfg.Redis.DedupeOff {
		dedupe = redis
	}
	pipeline := ingress.NewPipeline(engine, dedupe, cfg.Redis.DedupeTTL, logger)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Events:         handlers.NewEventsHandler(pipeline),
		Completions:    handlers.NewCompletionsHandler(engine),
		Queue:          handlers.NewQueueHandler(projector),
		Tickets:        handlers.NewTicketsHandler(ticketRepo, assessmentRepo, workflowRepo),
		AuthMiddleware: authMiddleware,
		Metrics:        registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
