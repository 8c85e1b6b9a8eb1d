package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/auth"
	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
)

// InboundService interprets provider callbacks: it correlates an inbound
// text to the sender's outstanding survey, parses and validates the payload,
// records the response at most once, and answers with either a confirmation
// link or a corrective prompt.
type InboundService struct {
	participants repository.ParticipantRepository
	instances    repository.SurveyInstanceRepository
	responses    repository.ResponseRepository
	deliveries   repository.DeliveryRecordRepository
	guard        ReplayGuard
	dispatcher   MessageDispatcher
	tokens       *auth.TokenManager
	bus          events.Dispatcher
	logger       *zap.Logger
	baseURL      string
}

// InboundDependencies bundles collaborators for inbound handling.
type InboundDependencies struct {
	ParticipantRepo repository.ParticipantRepository
	InstanceRepo    repository.SurveyInstanceRepository
	ResponseRepo    repository.ResponseRepository
	DeliveryRepo    repository.DeliveryRecordRepository
	Guard           ReplayGuard
	Dispatcher      MessageDispatcher
	Tokens          *auth.TokenManager
	Bus             events.Dispatcher
	Logger          *zap.Logger
	AnalyticsBase   string
}

// InboundResult reports what handling an inbound message did.
type InboundResult struct {
	Duplicate  bool
	ResponseID string
}

// NewInboundService constructs the service.
func NewInboundService(deps InboundDependencies) *InboundService {
	return &InboundService{
		participants: deps.ParticipantRepo,
		instances:    deps.InstanceRepo,
		responses:    deps.ResponseRepo,
		deliveries:   deps.DeliveryRepo,
		guard:        deps.Guard,
		dispatcher:   deps.Dispatcher,
		tokens:       deps.Tokens,
		bus:          deps.Bus,
		logger:       deps.Logger,
		baseURL:      deps.AnalyticsBase,
	}
}

// HandleInbound processes one provider callback. User-correctable failures
// come back as *domain.ReplyError; the corrective reply (when one is owed)
// has already been dispatched by the time this returns. A system failure
// releases the provider id so the provider's redelivery gets processed
// instead of being suppressed as a duplicate.
func (s *InboundService) HandleInbound(ctx context.Context, fromNumber, rawBody, providerSID string) (*InboundResult, error) {
	// Providers redeliver; a known id means we already did the work.
	consumed := false
	if providerSID != "" {
		dup, err := s.alreadyProcessed(ctx, providerSID)
		if err != nil {
			return nil, err
		}
		if dup {
			s.logger.Info("duplicate inbound message ignored", zap.String("provider_sid", providerSID))
			return &InboundResult{Duplicate: true}, nil
		}
		consumed = true
	}

	result, err := s.handleReply(ctx, fromNumber, rawBody)
	if err != nil && consumed {
		// A ReplyError is a terminal outcome: the participant already got
		// their corrective (or deliberate silence), so a redelivery must
		// stay suppressed. Anything else is a system failure the provider
		// should get to retry.
		if _, terminal := domain.ReplyErrorFrom(err); !terminal {
			if relErr := s.guard.Release(ctx, providerSID); relErr != nil {
				s.logger.Error("release provider id after failure",
					zap.String("provider_sid", providerSID),
					zap.Error(relErr))
			}
		}
	}
	return result, err
}

func (s *InboundService) handleReply(ctx context.Context, fromNumber, rawBody string) (*InboundResult, error) {
	participant, err := s.participants.GetByPhone(ctx, fromNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		// Silent by design: replying would leak the system's existence.
		s.logger.Warn("inbound message from unknown sender", zap.String("from", fromNumber))
		return nil, domain.ErrUnknownSender
	}
	if err != nil {
		return nil, err
	}

	instance, err := s.instances.LatestPending(ctx, participant.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		s.sendReply(ctx, domain.DeliveryKindCorrective, participant.PhoneNumber, RenderNoPendingMessage())
		return nil, domain.ErrNoPendingSurvey
	}
	if err != nil {
		return nil, err
	}

	reply, err := domain.ParseReply(rawBody)
	if err != nil {
		if replyErr, ok := domain.ReplyErrorFrom(err); ok {
			s.sendReply(ctx, domain.DeliveryKindCorrective, participant.PhoneNumber, RenderCorrectiveMessage(replyErr))
		}
		return nil, err
	}

	now := time.Now()
	answered, err := s.instances.MarkAnswered(ctx, instance.ID, now)
	if err != nil {
		return nil, err
	}
	if !answered {
		// Lost the race against a concurrent reply; first valid reply wins.
		return nil, domain.ErrAlreadyAnswered
	}

	response := &domain.Response{
		SurveyInstanceID: instance.ID,
		ParticipantID:    participant.ID,
		CampaignID:       instance.CampaignID,
		SurveyDate:       instance.SurveyDate,
		Joy:              reply.Joy,
		Achievement:      reply.Achievement,
		Meaningfulness:   reply.Meaningfulness,
		InfluenceText:    reply.InfluenceText,
		SubmittedAt:      now,
	}
	if err := s.responses.Create(ctx, response); err != nil {
		// Undo the answer transition so the instance is not stranded
		// answered with no response row; the participant's retry must find
		// it pending again.
		if revertErr := s.instances.RevertAnswered(ctx, instance.ID); revertErr != nil {
			s.logger.Error("revert answered instance",
				zap.String("instance_id", instance.ID),
				zap.Error(revertErr))
		}
		return nil, err
	}

	s.sendReply(ctx, domain.DeliveryKindConfirm, participant.PhoneNumber,
		RenderConfirmationMessage(s.analyticsURL(participant.ID, instance.CampaignID)))

	s.publish(ctx, events.Event{
		Type: events.EventResponseRecorded,
		Payload: events.ResponseRecordedPayload{
			ResponseID:       response.ID,
			SurveyInstanceID: instance.ID,
			ParticipantID:    participant.ID,
			CampaignID:       instance.CampaignID,
			SurveyDate:       instance.SurveyDate,
		},
	})

	return &InboundResult{ResponseID: response.ID}, nil
}

func (s *InboundService) alreadyProcessed(ctx context.Context, providerSID string) (bool, error) {
	if rec, err := s.deliveries.GetByProviderSID(ctx, providerSID); err == nil && rec != nil {
		return true, nil
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}
	first, err := s.guard.FirstSeen(ctx, providerSID)
	if err != nil {
		return false, err
	}
	return !first, nil
}

// sendReply dispatches a secondary message. Its failure is logged but never
// eclipses the primary outcome; delivery state lives on the DeliveryRecord.
func (s *InboundService) sendReply(ctx context.Context, kind domain.DeliveryKind, to, body string) {
	if _, err := s.dispatcher.Dispatch(ctx, kind, to, body); err != nil {
		s.logger.Error("reply dispatch failed",
			zap.String("kind", string(kind)),
			zap.String("to", to),
			zap.Error(err))
	}
}

func (s *InboundService) analyticsURL(participantID, campaignID string) string {
	url := fmt.Sprintf("%s/api/analytics/%s/%s", s.baseURL, participantID, campaignID)
	if s.tokens == nil {
		return url
	}
	token, _, err := s.tokens.GenerateLinkToken(participantID, campaignID)
	if err != nil {
		s.logger.Error("sign analytics link", zap.Error(err))
		return url
	}
	return url + "?t=" + token
}

func (s *InboundService) publish(ctx context.Context, event events.Event) {
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
