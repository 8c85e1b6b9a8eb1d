package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/repository"
)

// AnalyticsSummary is the read-side view over a participant's answered
// surveys for one campaign.
type AnalyticsSummary struct {
	ParticipantID      string            `json:"participant_id"`
	CampaignID         string            `json:"campaign_id"`
	ResponseCount      int               `json:"response_count"`
	AvgJoy             float64           `json:"avg_joy"`
	AvgAchievement     float64           `json:"avg_achievement"`
	AvgMeaningfulness  float64           `json:"avg_meaningfulness"`
	OverallScore       float64           `json:"overall_score"`
	StrongestDimension string            `json:"strongest_dimension"`
	WeakestDimension   string            `json:"weakest_dimension"`
	Streak             int               `json:"streak"`
	History            []domain.Response `json:"history"`
}

// AnalyticsService aggregates stored responses into per-participant insights.
// It is a pure reader; zero responses yield an empty summary, not an error.
type AnalyticsService struct {
	responses repository.ResponseRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(responses repository.ResponseRepository) *AnalyticsService {
	return &AnalyticsService{responses: responses}
}

// ComputeInsights reads all answered responses for the pair, ordered by
// survey date ascending, and derives means, the overall score, the
// strongest/weakest dimension and the day-over-day streak.
func (s *AnalyticsService) ComputeInsights(ctx context.Context, participantID, campaignID string) (*AnalyticsSummary, error) {
	history, err := s.responses.ListAnswered(ctx, participantID, campaignID)
	if err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{
		ParticipantID: participantID,
		CampaignID:    campaignID,
		ResponseCount: len(history),
		History:       history,
	}
	if len(history) == 0 {
		return summary, nil
	}

	var joySum, achievementSum, meaningfulnessSum int
	for _, resp := range history {
		joySum += resp.Joy
		achievementSum += resp.Achievement
		meaningfulnessSum += resp.Meaningfulness
	}
	n := float64(len(history))
	summary.AvgJoy = roundOneDecimal(float64(joySum) / n)
	summary.AvgAchievement = roundOneDecimal(float64(achievementSum) / n)
	summary.AvgMeaningfulness = roundOneDecimal(float64(meaningfulnessSum) / n)
	summary.OverallScore = roundOneDecimal((summary.AvgJoy + summary.AvgAchievement + summary.AvgMeaningfulness) / 3)

	means := map[string]float64{
		"joy":            summary.AvgJoy,
		"achievement":    summary.AvgAchievement,
		"meaningfulness": summary.AvgMeaningfulness,
	}
	summary.StrongestDimension, summary.WeakestDimension = rankDimensions(means)
	summary.Streak = streak(history)

	return summary, nil
}

// roundOneDecimal rounds to one decimal, ties half away from zero.
func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// rankDimensions picks the highest and lowest mean. Ties resolve by the
// fixed precedence joy > achievement > meaningfulness, which is the order
// of domain.RatingFields.
func rankDimensions(means map[string]float64) (strongest, weakest string) {
	strongest = domain.RatingFields[0]
	weakest = domain.RatingFields[0]
	for _, field := range domain.RatingFields[1:] {
		if means[field] > means[strongest] {
			strongest = field
		}
		if means[field] < means[weakest] {
			weakest = field
		}
	}
	return strongest, weakest
}

// streak counts consecutive answered survey dates ending at the most recent
// one; any gap breaks it.
func streak(history []domain.Response) int {
	if len(history) == 0 {
		return 0
	}
	count := 1
	for i := len(history) - 1; i > 0; i-- {
		cur := domain.DateOnly(history[i].SurveyDate)
		prev := domain.DateOnly(history[i-1].SurveyDate)
		if !prev.Equal(cur.Add(-24 * time.Hour)) {
			break
		}
		count++
	}
	return count
}
