package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/daily-status/internal/api/http"
	"github.com/spec-kit/daily-status/internal/api/http/handlers"
	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/observability"
	"github.com/spec-kit/daily-status/internal/persistence"
	"github.com/spec-kit/daily-status/internal/repository"
	"github.com/spec-kit/daily-status/internal/service"
	"github.com/spec-kit/daily-status/internal/worker"
	"github.com/spec-kit/daily-status/pkg/cache"
)

const localCacheBytes = 32 << 20

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
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	teamCache := cache.NewTiered(
		cache.NewLocalCache(localCacheBytes),
		cache.NewRedisCache(redis.Client, cfg.App.Name+":"),
		cfg.Redis.TeamCacheTTL()/4,
	)

	userRepo := repository.NewUserRepository(pg.Pool)
	updateRepo := repository.NewUpdateRepository(pg.Pool)
	teamRepo := repository.NewCachedTeamRepository(
		repository.NewTeamRepository(pg.Pool), teamCache, cfg.Redis.TeamCacheTTL(), logger)

	authService := service.NewAuthService(cfg.Auth, userRepo, dispatcher)
	updateService := service.NewUpdateService(service.UpdateDependencies{
		UpdateRepo: updateRepo,
		TeamRepo:   teamRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	teamService := service.NewTeamService(teamRepo, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, metrics)
	worker.StartNotificationWorker(ctx, notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          handlers.NewUsersHandler(authService),
		Updates:        handlers.NewUpdatesHandler(updateService),
		Teams:          handlers.NewTeamsHandler(teamService),
		AuthMiddleware: authMiddleware,
		Registry:       metrics.Registry(),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
