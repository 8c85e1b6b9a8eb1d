package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// scriptedSender fails a fixed number of times before succeeding.
type scriptedSender struct {
	failures int
	failWith error
	calls    int
}

func (s *scriptedSender) Name() string { return "scripted" }

func (s *scriptedSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.failWith
	}
	return &SendResult{ProviderSID: fmt.Sprintf("sid_%d", s.calls)}, nil
}

type memoryDeliveryRepo struct {
	records map[string]*domain.DeliveryRecord
	updates int
	nextID  int
}

func newMemoryDeliveryRepo() *memoryDeliveryRepo {
	return &memoryDeliveryRepo{records: make(map[string]*domain.DeliveryRecord)}
}

func (r *memoryDeliveryRepo) Create(ctx context.Context, record *domain.DeliveryRecord) error {
	r.nextID++
	record.ID = fmt.Sprintf("delivery-%d", r.nextID)
	record.CreatedAt = time.Now()
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *memoryDeliveryRepo) Update(ctx context.Context, record *domain.DeliveryRecord) error {
	r.updates++
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *memoryDeliveryRepo) GetByProviderSID(ctx context.Context, sid string) (*domain.DeliveryRecord, error) {
	for _, rec := range r.records {
		if rec.ProviderSID != nil && *rec.ProviderSID == sid {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("no record for sid %s", sid)
}

func (r *memoryDeliveryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestDispatcher(sender Sender, repo *memoryDeliveryRepo, maxAttempts int) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(sender, repo, zap.NewNop(), maxAttempts, 200*time.Millisecond)
	waits := &[]time.Duration{}
	d.wait = func(ctx context.Context, delay time.Duration) error {
		*waits = append(*waits, delay)
		return nil
	}
	return d, waits
}

func TestDispatchFirstAttemptSucceeds(t *testing.T) {
	sender := &scriptedSender{}
	repo := newMemoryDeliveryRepo()
	d, waits := newTestDispatcher(sender, repo, 3)

	record, err := d.Dispatch(context.Background(), domain.DeliveryKindSurvey, "+15551230001", "hello")
	require.NoError(t, err)

	assert.Equal(t, domain.DeliveryStatusSent, record.Status)
	assert.Equal(t, 1, record.AttemptCount)
	require.NotNil(t, record.ProviderSID)
	assert.Equal(t, "sid_1", *record.ProviderSID)
	assert.NotNil(t, record.SentAt)
	assert.Empty(t, *waits)
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	sender := &scriptedSender{
		failures: 2,
		failWith: fmt.Errorf("provider 503: %w", domain.ErrGatewayTransient),
	}
	repo := newMemoryDeliveryRepo()
	d, waits := newTestDispatcher(sender, repo, 3)

	record, err := d.Dispatch(context.Background(), domain.DeliveryKindSurvey, "+15551230001", "hello")
	require.NoError(t, err)

	assert.Equal(t, domain.DeliveryStatusSent, record.Status)
	assert.Equal(t, 3, record.AttemptCount)
	assert.Equal(t, 3, sender.calls)
	// Backoff doubles per attempt from the configured base.
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, *waits)
}

func TestDispatchPermanentFailureIsNotRetried(t *testing.T) {
	sender := &scriptedSender{
		failures: 3,
		failWith: fmt.Errorf("provider 400 invalid number: %w", domain.ErrGatewayPermanent),
	}
	repo := newMemoryDeliveryRepo()
	d, waits := newTestDispatcher(sender, repo, 3)

	record, err := d.Dispatch(context.Background(), domain.DeliveryKindSurvey, "+1bogus", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGatewayPermanent)

	assert.Equal(t, domain.DeliveryStatusFailed, record.Status)
	assert.Equal(t, 1, record.AttemptCount)
	assert.Equal(t, 1, sender.calls)
	assert.Empty(t, *waits)
	assert.Contains(t, record.LastError, "invalid number")
}

func TestDispatchExhaustsTransientRetries(t *testing.T) {
	sender := &scriptedSender{
		failures: 10,
		failWith: fmt.Errorf("provider timeout: %w", domain.ErrGatewayTransient),
	}
	repo := newMemoryDeliveryRepo()
	d, _ := newTestDispatcher(sender, repo, 3)

	record, err := d.Dispatch(context.Background(), domain.DeliveryKindSurvey, "+15551230001", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGatewayTransient)

	assert.Equal(t, domain.DeliveryStatusFailed, record.Status)
	assert.Equal(t, 3, record.AttemptCount)
	assert.Equal(t, 3, sender.calls)

	stored := repo.records[record.ID]
	require.NotNil(t, stored)
	assert.Equal(t, domain.DeliveryStatusFailed, stored.Status)
}

func TestDispatchStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	sender := &scriptedSender{
		failures: 10,
		failWith: fmt.Errorf("provider timeout: %w", domain.ErrGatewayTransient),
	}
	repo := newMemoryDeliveryRepo()
	d := NewDispatcher(sender, repo, zap.NewNop(), 3, 200*time.Millisecond)
	d.wait = func(ctx context.Context, delay time.Duration) error {
		return context.Canceled
	}

	record, err := d.Dispatch(context.Background(), domain.DeliveryKindSurvey, "+15551230001", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.DeliveryStatusFailed, record.Status)
	assert.Equal(t, 1, sender.calls)
}
