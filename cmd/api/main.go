package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/wellbeing-survey-service/internal/api/http"
	"github.com/spec-kit/wellbeing-survey-service/internal/api/http/handlers"
	"github.com/spec-kit/wellbeing-survey-service/internal/auth"
	"github.com/spec-kit/wellbeing-survey-service/internal/config"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
	"github.com/spec-kit/wellbeing-survey-service/internal/gateway"
	"github.com/spec-kit/wellbeing-survey-service/internal/observability"
	"github.com/spec-kit/wellbeing-survey-service/internal/persistence"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
	"github.com/spec-kit/wellbeing-survey-service/internal/service"
	"github.com/spec-kit/wellbeing-survey-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
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
	participantRepo := repository.NewParticipantRepository(pool)
	campaignRepo := repository.NewCampaignRepository(pool)
	instanceRepo := repository.NewSurveyInstanceRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	deliveryRepo := repository.NewDeliveryRecordRepository(pool)
	cycleRepo := repository.NewCycleRepository(pool)

	var sender gateway.Sender
	if cfg.SMS.UseMock {
		sender = gateway.NewMockSender(logger)
	} else {
		sender = gateway.NewTwilioSender(cfg.SMS)
	}
	dispatcher := gateway.NewDispatcher(sender, deliveryRepo, logger, cfg.Gateway.MaxAttempts, cfg.Gateway.Backoff())
	logger.Info("delivery gateway ready", zap.String("sender", dispatcher.SenderName()))

	bus := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	service.NewEventMonitor(bus, metrics, logger).RegisterHandlers()

	tokens := auth.NewTokenManager(cfg.Analytics.TokenSecret, cfg.Analytics.LinkTTL())

	schedulerService := service.NewSchedulerService(service.SchedulerDependencies{
		CampaignRepo:    campaignRepo,
		ParticipantRepo: participantRepo,
		InstanceRepo:    instanceRepo,
		CycleRepo:       cycleRepo,
		Dispatcher:      dispatcher,
		Bus:             bus,
		Logger:          logger,
		PoolSize:        cfg.Scheduler.PoolSize,
	})

	inboundService := service.NewInboundService(service.InboundDependencies{
		ParticipantRepo: participantRepo,
		InstanceRepo:    instanceRepo,
		ResponseRepo:    responseRepo,
		DeliveryRepo:    deliveryRepo,
		Guard:           service.NewRedisReplayGuard(redis.Client, cfg.Gateway.DedupWindow()),
		Dispatcher:      dispatcher,
		Tokens:          tokens,
		Bus:             bus,
		Logger:          logger,
		AnalyticsBase:   cfg.Analytics.BaseURL,
	})

	analyticsService := service.NewAnalyticsService(responseRepo)
	adminService := service.NewAdminService(participantRepo, campaignRepo, dispatcher, logger)

	retention := worker.NewRetentionWorker(instanceRepo, deliveryRepo, bus, logger, cfg.Retention)
	go retention.Run(ctx)

	go runDailyScheduler(ctx, schedulerService, cfg.Scheduler, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhook:   handlers.NewWebhookHandler(inboundService, metrics),
		Analytics: handlers.NewAnalyticsHandler(analyticsService, tokens),
		Admin:     handlers.NewAdminHandler(adminService, schedulerService, logger),
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

// runDailyScheduler fires the dispatch cycle at the configured local time,
// every day, until ctx is cancelled.
func runDailyScheduler(ctx context.Context, scheduler *service.SchedulerService, cfg config.SchedulerConfig, logger *zap.Logger) {
	for {
		next := nextRunTime(time.Now(), cfg.SendHour, cfg.SendMinute)
		logger.Info("next survey cycle scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := scheduler.RunDailyCycle(ctx, time.Now()); err != nil {
			logger.Error("daily cycle ended early", zap.Error(err))
		}
	}
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
