package domain

import "time"

// Response holds one completed survey. Immutable once created; the first
// valid reply for an instance wins.
type Response struct {
	ID               string
	SurveyInstanceID string
	ParticipantID    string
	CampaignID       string
	SurveyDate       time.Time
	Joy              int
	Achievement      int
	Meaningfulness   int
	InfluenceText    string
	SubmittedAt      time.Time
}
