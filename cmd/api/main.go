package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/tutorlane/tutor-marketplace/internal/api/http"
	"github.com/tutorlane/tutor-marketplace/internal/api/http/handlers"
	"github.com/tutorlane/tutor-marketplace/internal/auth"
	"github.com/tutorlane/tutor-marketplace/internal/config"
	"github.com/tutorlane/tutor-marketplace/internal/events"
	"github.com/tutorlane/tutor-marketplace/internal/observability"
	"github.com/tutorlane/tutor-marketplace/internal/persistence"
	"github.com/tutorlane/tutor-marketplace/internal/repository"
	"github.com/tutorlane/tutor-marketplace/internal/service"
	"github.com/tutorlane/tutor-marketplace/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthServiceDependencies{
		Store:      store,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	assignmentService := service.NewAssignmentService(logger)
	taskService := service.NewTaskService(logger)
	jobService := service.NewJobService(service.JobServiceDependencies{
		Store:      store,
		Assignment: assignmentService,
		Tasks:      taskService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	kycService := service.NewKYCService(service.KYCServiceDependencies{
		Store:      store,
		Assignment: assignmentService,
		Tasks:      taskService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	staffService := service.NewStaffService(service.StaffServiceDependencies{
		Store:      store,
		Redis:      redis.Client,
		CacheTTL:   cfg.Cache.WorkloadTTL(),
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(store, dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(tokens, store.Users(), store.Staff())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, staffService, taskService, store),
		Jobs:           handlers.NewJobsHandler(jobService),
		KYC:            handlers.NewKYCHandler(kycService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
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
