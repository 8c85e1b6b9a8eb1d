package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
)

// SchedulerService runs the daily dispatch cycle: for every running campaign
// and every enrolled participant, create the day's survey instance unless it
// already exists and hand the rendered message to the gateway. Idempotency
// rests on the (participant, campaign, date) uniqueness constraint, so
// re-running a cycle only reaches participants still missing an instance.
type SchedulerService struct {
	campaigns    repository.CampaignRepository
	participants repository.ParticipantRepository
	instances    repository.SurveyInstanceRepository
	cycles       repository.CycleRepository
	dispatcher   MessageDispatcher
	bus          events.Dispatcher
	logger       *zap.Logger
	poolSize     int
}

// SchedulerDependencies bundles collaborators for the scheduler.
type SchedulerDependencies struct {
	CampaignRepo    repository.CampaignRepository
	ParticipantRepo repository.ParticipantRepository
	InstanceRepo    repository.SurveyInstanceRepository
	CycleRepo       repository.CycleRepository
	Dispatcher      MessageDispatcher
	Bus             events.Dispatcher
	Logger          *zap.Logger
	PoolSize        int
}

// CycleStats summarizes one scheduling cycle.
type CycleStats struct {
	Dispatched int
	Skipped    int
	Failed     int
}

// NewSchedulerService constructs the service.
func NewSchedulerService(deps SchedulerDependencies) *SchedulerService {
	poolSize := deps.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	return &SchedulerService{
		campaigns:    deps.CampaignRepo,
		participants: deps.ParticipantRepo,
		instances:    deps.InstanceRepo,
		cycles:       deps.CycleRepo,
		dispatcher:   deps.Dispatcher,
		bus:          deps.Bus,
		logger:       deps.Logger,
		poolSize:     poolSize,
	}
}

type dispatchJob struct {
	campaign    domain.Campaign
	participant domain.Participant
	surveyDate  time.Time
}

// RunDailyCycle dispatches surveys due on asOf. Per-recipient failures are
// recorded and do not abort the rest of the cycle; cancellation takes effect
// between recipients, never mid-send.
func (s *SchedulerService) RunDailyCycle(ctx context.Context, asOf time.Time) (CycleStats, error) {
	surveyDate := domain.DateOnly(asOf)

	campaigns, err := s.campaigns.ListActive(ctx)
	if err != nil {
		return CycleStats{}, err
	}

	var jobs []dispatchJob
	for _, campaign := range campaigns {
		if !campaign.IsRunning(asOf) {
			continue
		}
		participants, err := s.participants.ListEnrolled(ctx)
		if err != nil {
			s.logger.Error("list enrolled participants", zap.String("campaign_id", campaign.ID), zap.Error(err))
			continue
		}
		for _, participant := range participants {
			jobs = append(jobs, dispatchJob{campaign: campaign, participant: participant, surveyDate: surveyDate})
		}
	}

	var dispatched, skipped, failed int64

	jobCh := make(chan dispatchJob)
	var wg sync.WaitGroup
	for i := 0; i < s.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				switch s.processJob(ctx, job) {
				case jobDispatched:
					atomic.AddInt64(&dispatched, 1)
				case jobSkipped:
					atomic.AddInt64(&skipped, 1)
				case jobFailed:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

feed:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- job:
		}
	}
	close(jobCh)
	wg.Wait()

	stats := CycleStats{
		Dispatched: int(dispatched),
		Skipped:    int(skipped),
		Failed:     int(failed),
	}

	marker := &domain.CycleMarker{
		CycleDate:   surveyDate,
		CompletedAt: time.Now(),
		Dispatched:  stats.Dispatched,
		Failed:      stats.Failed,
	}
	if err := s.cycles.Record(ctx, marker); err != nil {
		s.logger.Error("record cycle marker", zap.Error(err))
	}

	s.logger.Info("daily cycle finished",
		zap.Time("survey_date", surveyDate),
		zap.Int("dispatched", stats.Dispatched),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))

	return stats, ctx.Err()
}

type jobOutcome int

const (
	jobDispatched jobOutcome = iota
	jobSkipped
	jobFailed
)

func (s *SchedulerService) processJob(ctx context.Context, job dispatchJob) jobOutcome {
	instance := &domain.SurveyInstance{
		ParticipantID: job.participant.ID,
		CampaignID:    job.campaign.ID,
		SurveyDate:    job.surveyDate,
	}
	created, err := s.instances.CreateIfAbsent(ctx, instance)
	if err != nil {
		s.logger.Error("create survey instance",
			zap.String("participant_id", job.participant.ID),
			zap.String("campaign_id", job.campaign.ID),
			zap.Error(err))
		return jobFailed
	}
	if !created {
		return jobSkipped
	}

	body := RenderSurveyMessage(job.participant, job.surveyDate)
	record, err := s.dispatcher.Dispatch(ctx, domain.DeliveryKindSurvey, job.participant.PhoneNumber, body)
	if err != nil {
		// The delivery record already carries the failure; the instance
		// stays pending so a re-run or retry path can pick it up.
		s.publish(ctx, events.Event{
			Type: events.EventDeliveryFailed,
			Payload: events.DeliveryFailedPayload{
				DeliveryID: recordID(record),
				Kind:       domain.DeliveryKindSurvey,
				ToNumber:   job.participant.PhoneNumber,
				Attempts:   recordAttempts(record),
				LastError:  err.Error(),
			},
		})
		return jobFailed
	}

	if err := s.instances.AttachDelivery(ctx, instance.ID, record.ID); err != nil {
		s.logger.Error("attach delivery to instance", zap.String("instance_id", instance.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type: events.EventSurveyDispatched,
		Payload: events.SurveyDispatchedPayload{
			SurveyInstanceID: instance.ID,
			ParticipantID:    job.participant.ID,
			CampaignID:       job.campaign.ID,
			SurveyDate:       job.surveyDate,
			DeliveryID:       record.ID,
		},
	})
	return jobDispatched
}

func (s *SchedulerService) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.bus.Publish(ctx, event)
}

func recordID(record *domain.DeliveryRecord) string {
	if record == nil {
		return ""
	}
	return record.ID
}

func recordAttempts(record *domain.DeliveryRecord) int {
	if record == nil {
		return 0
	}
	return record.AttemptCount
}
