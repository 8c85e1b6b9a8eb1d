package domain

import "time"

// SurveyStatus enumerates lifecycle states for a survey instance.
type SurveyStatus string

const (
	SurveyStatusPending  SurveyStatus = "PENDING"
	SurveyStatusAnswered SurveyStatus = "ANSWERED"
	SurveyStatusExpired  SurveyStatus = "EXPIRED"
)

// SurveyInstance records that a participant owed a reply for a campaign on a
// date. At most one instance exists per (participant, campaign, survey date).
type SurveyInstance struct {
	ID            string
	ParticipantID string
	CampaignID    string
	SurveyDate    time.Time
	Status        SurveyStatus
	DeliveryID    *string
	CreatedAt     time.Time
	AnsweredAt    *time.Time
}

// CycleMarker records that a scheduling cycle completed for a date. Kept in
// the store rather than process memory so restarts stay observable.
type CycleMarker struct {
	CycleDate   time.Time
	CompletedAt time.Time
	Dispatched  int
	Failed      int
}
