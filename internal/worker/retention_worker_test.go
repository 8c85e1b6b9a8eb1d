package worker

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/config"
	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
)

type stubInstanceRepo struct {
	expiredCutoff time.Time
	expired       int64
}

func (r *stubInstanceRepo) CreateIfAbsent(ctx context.Context, instance *domain.SurveyInstance) (bool, error) {
	return false, nil
}

func (r *stubInstanceRepo) GetByID(ctx context.Context, id string) (*domain.SurveyInstance, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubInstanceRepo) LatestPending(ctx context.Context, participantID string) (*domain.SurveyInstance, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubInstanceRepo) MarkAnswered(ctx context.Context, id string, answeredAt time.Time) (bool, error) {
	return false, nil
}

func (r *stubInstanceRepo) RevertAnswered(ctx context.Context, id string) error {
	return nil
}

func (r *stubInstanceRepo) AttachDelivery(ctx context.Context, id, deliveryID string) error {
	return nil
}

func (r *stubInstanceRepo) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.expiredCutoff = cutoff
	return r.expired, nil
}

type stubDeliveryRepo struct {
	deletedCutoff time.Time
	deleted       int64
}

func (r *stubDeliveryRepo) Create(ctx context.Context, record *domain.DeliveryRecord) error { return nil }
func (r *stubDeliveryRepo) Update(ctx context.Context, record *domain.DeliveryRecord) error { return nil }

func (r *stubDeliveryRepo) GetByProviderSID(ctx context.Context, sid string) (*domain.DeliveryRecord, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubDeliveryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.deletedCutoff = cutoff
	return r.deleted, nil
}

type captureBus struct {
	events []events.Event
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) error {
	b.events = append(b.events, event)
	return nil
}

func (b *captureBus) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func TestSweepAppliesConfiguredCutoffs(t *testing.T) {
	instances := &stubInstanceRepo{expired: 4}
	deliveries := &stubDeliveryRepo{deleted: 12}
	bus := &captureBus{}
	cfg := config.RetentionConfig{PendingExpiryDays: 7, DeliveryRecordDays: 90}

	w := NewRetentionWorker(instances, deliveries, bus, zap.NewNop(), cfg)
	w.Sweep(context.Background())

	wantExpiry := domain.DateOnly(time.Now()).AddDate(0, 0, -7)
	assert.Equal(t, wantExpiry, instances.expiredCutoff)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -90), deliveries.deletedCutoff, time.Minute)

	// One surveys-expired event carrying the count.
	assert.Len(t, bus.events, 1)
	assert.Equal(t, events.EventSurveysExpired, bus.events[0].Type)
	payload, ok := bus.events[0].Payload.(events.SurveysExpiredPayload)
	assert.True(t, ok)
	assert.Equal(t, int64(4), payload.Count)
}

func TestSweepStaysQuietWhenNothingToDo(t *testing.T) {
	instances := &stubInstanceRepo{}
	deliveries := &stubDeliveryRepo{}
	bus := &captureBus{}
	cfg := config.RetentionConfig{PendingExpiryDays: 7, DeliveryRecordDays: 90}

	w := NewRetentionWorker(instances, deliveries, bus, zap.NewNop(), cfg)
	w.Sweep(context.Background())

	assert.Empty(t, bus.events)
}
