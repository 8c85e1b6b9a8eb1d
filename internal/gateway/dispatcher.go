package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
)

// Dispatcher wraps a Sender with retry, backoff and DeliveryRecord
// bookkeeping. Transient failures are retried up to the attempt cap with
// exponential backoff; permanent failures are reported immediately. Either
// way the outcome lands on the DeliveryRecord and is never swallowed.
type Dispatcher struct {
	sender      Sender
	deliveries  repository.DeliveryRecordRepository
	logger      *zap.Logger
	maxAttempts int
	backoffBase time.Duration

	// wait is replaced in tests to avoid real sleeps.
	wait func(ctx context.Context, d time.Duration) error
}

// NewDispatcher builds a dispatcher around the active sender.
func NewDispatcher(sender Sender, deliveries repository.DeliveryRecordRepository, logger *zap.Logger, maxAttempts int, backoffBase time.Duration) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	return &Dispatcher{
		sender:      sender,
		deliveries:  deliveries,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		wait:        waitCtx,
	}
}

// SenderName exposes the active variant for logs and admin responses.
func (d *Dispatcher) SenderName() string { return d.sender.Name() }

// Dispatch sends one message and returns its DeliveryRecord. The record is
// persisted before the first attempt and updated after every attempt, so a
// crash mid-send leaves an inspectable row behind.
func (d *Dispatcher) Dispatch(ctx context.Context, kind domain.DeliveryKind, to, body string) (*domain.DeliveryRecord, error) {
	record := &domain.DeliveryRecord{
		Kind:     kind,
		ToNumber: to,
		Body:     body,
		Status:   domain.DeliveryStatusQueued,
	}
	if err := d.deliveries.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create delivery record: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		record.AttemptCount = attempt

		result, err := d.sender.Send(ctx, to, body)
		if err == nil {
			now := time.Now()
			record.Status = domain.DeliveryStatusSent
			record.SentAt = &now
			record.LastError = ""
			if result.ProviderSID != "" {
				sid := result.ProviderSID
				record.ProviderSID = &sid
			}
			if updateErr := d.deliveries.Update(ctx, record); updateErr != nil {
				return record, fmt.Errorf("update delivery record: %w", updateErr)
			}
			return record, nil
		}

		lastErr = err
		record.LastError = err.Error()
		if updateErr := d.deliveries.Update(ctx, record); updateErr != nil {
			d.logger.Error("failed to update delivery record", zap.Error(updateErr))
		}

		if domain.IsPermanentDeliveryFailure(err) {
			break
		}
		if attempt < d.maxAttempts {
			delay := d.backoffBase << (attempt - 1)
			d.logger.Warn("transient send failure, retrying",
				zap.String("to", to),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err))
			if waitErr := d.wait(ctx, delay); waitErr != nil {
				lastErr = waitErr
				break
			}
		}
	}

	record.Status = domain.DeliveryStatusFailed
	record.LastError = lastErr.Error()
	if updateErr := d.deliveries.Update(ctx, record); updateErr != nil {
		d.logger.Error("failed to update delivery record", zap.Error(updateErr))
	}
	d.logger.Error("delivery failed",
		zap.String("to", to),
		zap.String("kind", string(kind)),
		zap.Int("attempts", record.AttemptCount),
		zap.Error(lastErr))
	return record, lastErr
}

func waitCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
