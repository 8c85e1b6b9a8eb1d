package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
)

// AdminService is the thin boundary to the administrative store: participant
// and campaign creation plus test sends. No survey semantics live here.
type AdminService struct {
	participants repository.ParticipantRepository
	campaigns    repository.CampaignRepository
	dispatcher   MessageDispatcher
	logger       *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(participants repository.ParticipantRepository, campaigns repository.CampaignRepository, dispatcher MessageDispatcher, logger *zap.Logger) *AdminService {
	return &AdminService{
		participants: participants,
		campaigns:    campaigns,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// CreateParticipant enrolls a participant.
func (s *AdminService) CreateParticipant(ctx context.Context, name, phone string) (*domain.Participant, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, errors.New("name and phone number are required")
	}
	participant := &domain.Participant{
		Name:        name,
		PhoneNumber: phone,
		IsActive:    true,
	}
	if err := s.participants.Create(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

// CreateCampaign creates a campaign. Absent dates default to a year-long
// window starting today.
func (s *AdminService) CreateCampaign(ctx context.Context, name, description string, startDate, endDate *time.Time) (*domain.Campaign, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("campaign name is required")
	}

	var start, end time.Time
	if startDate == nil || endDate == nil {
		start = domain.DateOnly(time.Now())
		end = start.AddDate(1, 0, 0)
	} else {
		start = domain.DateOnly(*startDate)
		end = domain.DateOnly(*endDate)
		if !start.Before(end) {
			return nil, errors.New("end date must be after start date")
		}
	}

	campaign := &domain.Campaign{
		Name:        name,
		Description: strings.TrimSpace(description),
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	}
	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// SendTestMessage pushes a test SMS through the active gateway.
func (s *AdminService) SendTestMessage(ctx context.Context, phone, body string) (*domain.DeliveryRecord, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, errors.New("phone number is required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = RenderTestMessage()
	}
	return s.dispatcher.Dispatch(ctx, domain.DeliveryKindTest, phone, body)
}
