package dto

import (
	"time"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// CreateParticipantRequest payload.
type CreateParticipantRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CreateCampaignRequest payload. Dates are YYYY-MM-DD; both omitted means a
// default year-long window.
type CreateCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// TestSendRequest payload.
type TestSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// ParticipantResponse payload.
type ParticipantResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CampaignResponse payload.
type CampaignResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeliveryResponse reports a gateway outcome.
type DeliveryResponse struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	ProviderSID  *string `json:"provider_sid,omitempty"`
	AttemptCount int     `json:"attempt_count"`
	LastError    string  `json:"last_error,omitempty"`
}

// ResponseEntry is one answered survey in the analytics history.
type ResponseEntry struct {
	ID             string    `json:"id"`
	SurveyDate     string    `json:"survey_date"`
	Joy            int       `json:"joy"`
	Achievement    int       `json:"achievement"`
	Meaningfulness int       `json:"meaningfulness"`
	InfluenceText  string    `json:"influence_text"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// AnalyticsResponse is the aggregated insights view for a participant/campaign pair.
type AnalyticsResponse struct {
	ParticipantID      string          `json:"participant_id"`
	CampaignID         string          `json:"campaign_id"`
	ResponseCount      int             `json:"response_count"`
	AvgJoy             float64         `json:"avg_joy"`
	AvgAchievement     float64         `json:"avg_achievement"`
	AvgMeaningfulness  float64         `json:"avg_meaningfulness"`
	OverallScore       float64         `json:"overall_score"`
	StrongestDimension string          `json:"strongest_dimension"`
	WeakestDimension   string          `json:"weakest_dimension"`
	Streak             int             `json:"streak"`
	Responses          []ResponseEntry `json:"responses"`
}

// FromParticipant maps a domain participant.
func FromParticipant(p *domain.Participant) ParticipantResponse {
	return ParticipantResponse{
		ID:          p.ID,
		Name:        p.Name,
		PhoneNumber: p.PhoneNumber,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

// FromCampaign maps a domain campaign.
func FromCampaign(c *domain.Campaign) CampaignResponse {
	return CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		StartDate:   c.StartDate.Format("2006-01-02"),
		EndDate:     c.EndDate.Format("2006-01-02"),
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

// FromDelivery maps a delivery record.
func FromDelivery(rec *domain.DeliveryRecord) DeliveryResponse {
	return DeliveryResponse{
		ID:           rec.ID,
		Status:       string(rec.Status),
		ProviderSID:  rec.ProviderSID,
		AttemptCount: rec.AttemptCount,
		LastError:    rec.LastError,
	}
}

// FromResponses maps the analytics history.
func FromResponses(responses []domain.Response) []ResponseEntry {
	out := make([]ResponseEntry, 0, len(responses))
	for _, r := range responses {
		out = append(out, ResponseEntry{
			ID:             r.ID,
			SurveyDate:     r.SurveyDate.Format("2006-01-02"),
			Joy:            r.Joy,
			Achievement:    r.Achievement,
			Meaningfulness: r.Meaningfulness,
			InfluenceText:  r.InfluenceText,
			SubmittedAt:    r.SubmittedAt,
		})
	}
	return out
}
