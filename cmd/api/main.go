package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/marketplace-service/internal/api/http"
	"github.com/spec-kit/marketplace-service/internal/api/http/handlers"
	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/discovery"
	"github.com/spec-kit/marketplace-service/internal/events"
	"github.com/spec-kit/marketplace-service/internal/observability"
	"github.com/spec-kit/marketplace-service/internal/persistence"
	"github.com/spec-kit/marketplace-service/internal/repository"
	"github.com/spec-kit/marketplace-service/internal/service"
	"github.com/spec-kit/marketplace-service/internal/worker"
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

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	providerCache := service.NewProviderCache(redisConn.Client, cfg.Cache.ProviderTTL(), logger)
	finder := discovery.NewChain(cfg.Discovery, logger)

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Users:      userRepo,
		Finder:     finder,
		Cache:      providerCache,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Config:     cfg.Assignment,
	})
	subscriptionService := service.NewSubscriptionService(service.SubscriptionDependencies{
		Subscriptions: subscriptionRepo,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Config:        cfg.Assignment,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		Requests:      requestRepo,
		Users:         userRepo,
		Subscriptions: subscriptionService,
		Assigner:      assignmentService,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		Users:    userRepo,
		Requests: requestRepo,
		Catalog:  catalogRepo,
		Logger:   logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		Users:  userRepo,
		Tokens: tokens,
		Logger: logger,
		Config: cfg.Auth,
	})
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	notificationService := service.NewNotificationService(dispatcher, cfg.Notification, logger)
	notificationWorker := worker.NewNotificationWorker(notificationService, logger)
	notificationWorker.Start(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(pool, redisConn.Client),
		Auth:             handlers.NewAuthHandler(authService),
		Profile:          handlers.NewProfileHandler(userService),
		Requests:         handlers.NewRequestsHandler(requestService),
		ProviderRequests: handlers.NewProviderRequestsHandler(requestService),
		Subscription:     handlers.NewSubscriptionHandler(subscriptionService),
		Catalog:          handlers.NewCatalogHandler(userService),
		Admin:            handlers.NewAdminHandler(userService, requestService, subscriptionService),
		AuthMiddleware:   authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	notificationWorker.Wait()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
