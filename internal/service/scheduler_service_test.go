package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
)

func testCampaign(id string, asOf time.Time) domain.Campaign {
	return domain.Campaign{
		ID:        id,
		Name:      "wellbeing-" + id,
		StartDate: asOf.AddDate(0, 0, -7),
		EndDate:   asOf.AddDate(0, 0, 7),
		IsActive:  true,
	}
}

func testParticipant(id, phone string) domain.Participant {
	return domain.Participant{ID: id, Name: "P " + id, PhoneNumber: phone, IsActive: true}
}

func newTestScheduler(campaigns *fakeCampaignRepo, participants *fakeParticipantRepo, instances *fakeInstanceRepo, cycles *fakeCycleRepo, dispatcher *fakeMessageDispatcher, bus *fakeBus) *SchedulerService {
	return NewSchedulerService(SchedulerDependencies{
		CampaignRepo:    campaigns,
		ParticipantRepo: participants,
		InstanceRepo:    instances,
		CycleRepo:       cycles,
		Dispatcher:      dispatcher,
		Bus:             bus,
		Logger:          zap.NewNop(),
		PoolSize:        2,
	})
}

func TestRunDailyCycleDispatchesToAllEnrolled(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	campaigns := &fakeCampaignRepo{campaigns: []domain.Campaign{testCampaign("c1", asOf)}}
	participants := newFakeParticipantRepo(
		testParticipant("p1", "+15551230001"),
		testParticipant("p2", "+15551230002"),
		testParticipant("p3", "+15551230003"),
	)
	instances := newFakeInstanceRepo()
	cycles := newFakeCycleRepo()
	dispatcher := newFakeMessageDispatcher()
	bus := &fakeBus{}

	scheduler := newTestScheduler(campaigns, participants, instances, cycles, dispatcher, bus)

	stats, err := scheduler.RunDailyCycle(context.Background(), asOf)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Dispatched)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Len(t, dispatcher.messages(), 3)
	assert.Equal(t, 3, instances.pendingCount())
	assert.Len(t, bus.byType(events.EventSurveyDispatched), 3)

	marker, err := cycles.Get(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 3, marker.Dispatched)
}

func TestRunDailyCycleIsIdempotent(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	campaigns := &fakeCampaignRepo{campaigns: []domain.Campaign{testCampaign("c1", asOf)}}
	participants := newFakeParticipantRepo(
		testParticipant("p1", "+15551230001"),
		testParticipant("p2", "+15551230002"),
	)
	instances := newFakeInstanceRepo()
	dispatcher := newFakeMessageDispatcher()

	scheduler := newTestScheduler(campaigns, participants, instances, newFakeCycleRepo(), dispatcher, &fakeBus{})

	first, err := scheduler.RunDailyCycle(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Dispatched)

	// Re-running the same date must not create instances or send again.
	second, err := scheduler.RunDailyCycle(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Dispatched)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, dispatcher.messages(), 2)
	assert.Equal(t, 2, instances.pendingCount())
}

func TestRunDailyCycleNextDayCreatesNewInstances(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	campaigns := &fakeCampaignRepo{campaigns: []domain.Campaign{testCampaign("c1", asOf)}}
	participants := newFakeParticipantRepo(testParticipant("p1", "+15551230001"))
	instances := newFakeInstanceRepo()
	dispatcher := newFakeMessageDispatcher()

	scheduler := newTestScheduler(campaigns, participants, instances, newFakeCycleRepo(), dispatcher, &fakeBus{})

	_, err := scheduler.RunDailyCycle(context.Background(), asOf)
	require.NoError(t, err)

	stats, err := scheduler.RunDailyCycle(context.Background(), asOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Dispatched)
	assert.Len(t, dispatcher.messages(), 2)
}

func TestRunDailyCycleIsolatesPerParticipantFailures(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	campaigns := &fakeCampaignRepo{campaigns: []domain.Campaign{testCampaign("c1", asOf)}}
	participants := newFakeParticipantRepo(
		testParticipant("p1", "+15551230001"),
		testParticipant("p2", "+15551230002"),
		testParticipant("p3", "+15551230003"),
	)
	instances := newFakeInstanceRepo()
	dispatcher := newFakeMessageDispatcher()
	dispatcher.failFor["+15551230002"] = errors.New("carrier rejected")
	bus := &fakeBus{}

	scheduler := newTestScheduler(campaigns, participants, instances, newFakeCycleRepo(), dispatcher, bus)

	stats, err := scheduler.RunDailyCycle(context.Background(), asOf)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Dispatched)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, dispatcher.messages(), 2)
	assert.Len(t, bus.byType(events.EventDeliveryFailed), 1)
	// The failed participant's instance stays pending for a later retry.
	assert.Equal(t, 3, instances.pendingCount())
}

func TestRunDailyCycleSkipsCampaignsOutsideWindow(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ended := testCampaign("ended", asOf)
	ended.EndDate = asOf.AddDate(0, 0, -1)
	notStarted := testCampaign("future", asOf)
	notStarted.StartDate = asOf.AddDate(0, 0, 1)
	inactive := testCampaign("off", asOf)
	inactive.IsActive = false

	campaigns := &fakeCampaignRepo{campaigns: []domain.Campaign{ended, notStarted, inactive}}
	participants := newFakeParticipantRepo(testParticipant("p1", "+15551230001"))
	dispatcher := newFakeMessageDispatcher()

	scheduler := newTestScheduler(campaigns, participants, newFakeInstanceRepo(), newFakeCycleRepo(), dispatcher, &fakeBus{})

	stats, err := scheduler.RunDailyCycle(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, CycleStats{}, stats)
	assert.Empty(t, dispatcher.messages())
}

func TestRunDailyCycleStopsOnCancelledContext(t *testing.T) {
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	campaigns := &fakeCampaignRepo{campaigns: []domain.Campaign{testCampaign("c1", asOf)}}
	participants := newFakeParticipantRepo(
		testParticipant("p1", "+15551230001"),
		testParticipant("p2", "+15551230002"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scheduler := newTestScheduler(campaigns, participants, newFakeInstanceRepo(), newFakeCycleRepo(), newFakeMessageDispatcher(), &fakeBus{})

	_, err := scheduler.RunDailyCycle(ctx, asOf)
	assert.ErrorIs(t, err, context.Canceled)
}
