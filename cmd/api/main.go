package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/itdesk/internal/api/http"
	"github.com/spec-kit/itdesk/internal/api/http/handlers"
	"github.com/spec-kit/itdesk/internal/auth"
	"github.com/spec-kit/itdesk/internal/config"
	"github.com/spec-kit/itdesk/internal/events"
	"github.com/spec-kit/itdesk/internal/mailer"
	"github.com/spec-kit/itdesk/internal/observability"
	"github.com/spec-kit/itdesk/internal/persistence"
	"github.com/spec-kit/itdesk/internal/realtime"
	"github.com/spec-kit/itdesk/internal/repository"
	"github.com/spec-kit/itdesk/internal/service"
	"github.com/spec-kit/itdesk/internal/worker"
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

	pool := pg.PoolHandle()
	staffRepo := repository.NewStaffRepository(pool)
	passcodeRepo := repository.NewPasscodeRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	denylist := auth.NewRedisDenylist(redis.Client)
	mail := mailer.NewSMTPMailer(cfg.SMTP, cfg.Notification.WebsiteLink)

	otpService := service.NewOTPService(passcodeRepo, cfg.OTP, metrics)
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo: staffRepo,
		OTP:       otpService,
		Mailer:    mail,
		Tokens:    tokens,
		Denylist:  denylist,
		Logger:    logger,
	})
	issueService := service.NewIssueService(issueRepo, dispatcher, metrics)
	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     mail,
		Publisher:  service.NewRedisPublisher(redis.Client),
		IssueRepo:  issueRepo,
		StaffRepo:  staffRepo,
		Logger:     logger,
		Metrics:    metrics,
	})
	worker.StartNotificationWorker(notificationService)

	hub := realtime.NewHub(logger)
	bridge := realtime.NewBridge(redis.Client, cfg.Notification.Channel, hub, logger)
	go bridge.Run(ctx)
	go worker.StartPasscodeSweeper(ctx, passcodeRepo, cfg.OTP.SweepInterval, logger)

	authMiddleware := auth.NewMiddleware(tokens, staffRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Staff:          handlers.NewStaffHandler(staffService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Notifications:  handlers.NewNotificationsHandler(hub, logger),
		AuthMiddleware: authMiddleware,
		OTPLimiter:     httptransport.NewOTPRateLimiter(cfg.OTP.RatePerMinute, cfg.OTP.RateBurst),
	})

	go func() {
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
