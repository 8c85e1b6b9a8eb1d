package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/config"
	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
)

const sweepInterval = 24 * time.Hour

// RetentionWorker expires stale pending survey instances and deletes old
// delivery records on a daily sweep. The expiry window is policy, not a
// constant: it comes from configuration.
type RetentionWorker struct {
	instances  repository.SurveyInstanceRepository
	deliveries repository.DeliveryRecordRepository
	bus        events.Dispatcher
	logger     *zap.Logger
	cfg        config.RetentionConfig
}

// NewRetentionWorker constructs the worker.
func NewRetentionWorker(instances repository.SurveyInstanceRepository, deliveries repository.DeliveryRecordRepository, bus events.Dispatcher, logger *zap.Logger, cfg config.RetentionConfig) *RetentionWorker {
	return &RetentionWorker{
		instances:  instances,
		deliveries: deliveries,
		bus:        bus,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run sweeps once immediately, then on the daily interval until ctx ends.
func (w *RetentionWorker) Run(ctx context.Context) {
	w.Sweep(ctx)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep applies the retention policy once.
func (w *RetentionWorker) Sweep(ctx context.Context) {
	now := time.Now()

	expiryCutoff := domain.DateOnly(now).AddDate(0, 0, -w.cfg.PendingExpiryDays)
	expired, err := w.instances.ExpirePendingBefore(ctx, expiryCutoff)
	if err != nil {
		w.logger.Error("expire pending instances", zap.Error(err))
	} else if expired > 0 {
		w.logger.Info("expired stale pending surveys", zap.Int64("count", expired), zap.Time("cutoff", expiryCutoff))
		if w.bus != nil {
			_ = w.bus.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventSurveysExpired,
				Timestamp: now,
				Payload:   events.SurveysExpiredPayload{Count: expired, Cutoff: expiryCutoff},
			})
		}
	}

	deliveryCutoff := now.AddDate(0, 0, -w.cfg.DeliveryRecordDays)
	deleted, err := w.deliveries.DeleteOlderThan(ctx, deliveryCutoff)
	if err != nil {
		w.logger.Error("delete old delivery records", zap.Error(err))
	} else if deleted > 0 {
		w.logger.Info("deleted old delivery records", zap.Int64("count", deleted), zap.Time("cutoff", deliveryCutoff))
	}
}
