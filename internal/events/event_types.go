package events

import (
	"time"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSurveyDispatched EventType = "survey_dispatched"
	EventResponseRecorded EventType = "response_recorded"
	EventDeliveryFailed   EventType = "delivery_failed"
	EventSurveysExpired   EventType = "surveys_expired"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SurveyDispatchedPayload payload.
type SurveyDispatchedPayload struct {
	SurveyInstanceID string    `json:"survey_instance_id"`
	ParticipantID    string    `json:"participant_id"`
	CampaignID       string    `json:"campaign_id"`
	SurveyDate       time.Time `json:"survey_date"`
	DeliveryID       string    `json:"delivery_id"`
}

// ResponseRecordedPayload payload.
type ResponseRecordedPayload struct {
	ResponseID       string    `json:"response_id"`
	SurveyInstanceID string    `json:"survey_instance_id"`
	ParticipantID    string    `json:"participant_id"`
	CampaignID       string    `json:"campaign_id"`
	SurveyDate       time.Time `json:"survey_date"`
}

// DeliveryFailedPayload payload.
type DeliveryFailedPayload struct {
	DeliveryID string              `json:"delivery_id"`
	Kind       domain.DeliveryKind `json:"kind"`
	ToNumber   string              `json:"to_number"`
	Attempts   int                 `json:"attempts"`
	LastError  string              `json:"last_error"`
}

// SurveysExpiredPayload payload.
type SurveysExpiredPayload struct {
	Count  int64     `json:"count"`
	Cutoff time.Time `json:"cutoff"`
}
