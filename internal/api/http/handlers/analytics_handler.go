package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wellbeing-survey-service/internal/api/dto"
	"github.com/spec-kit/wellbeing-survey-service/internal/auth"
	"github.com/spec-kit/wellbeing-survey-service/internal/service"
	apperrors "github.com/spec-kit/wellbeing-survey-service/pkg/util"
)

// AnalyticsHandler serves the read-side insights contract.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	tokens    *auth.TokenManager
}

// NewAnalyticsHandler returns a new handler instance.
func NewAnalyticsHandler(analytics *service.AnalyticsService, tokens *auth.TokenManager) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, tokens: tokens}
}

// GetInsights returns the aggregated summary for a participant/campaign
// pair. When a link token is supplied it must match the requested pair;
// requests without a token come from the trusted admin/API layer.
func (h *AnalyticsHandler) GetInsights(c *fiber.Ctx) error {
	participantID := c.Params("userID")
	campaignID := c.Params("campaignID")

	if token := c.Query("t"); token != "" {
		claims, err := h.tokens.ParseLinkToken(token)
		if err != nil {
			return apperrors.NewUnauthorized("invalid or expired analytics link")
		}
		if claims.ParticipantID != participantID || claims.CampaignID != campaignID {
			return apperrors.NewUnauthorized("analytics link does not match this report")
		}
	}

	summary, err := h.analytics.ComputeInsights(c.UserContext(), participantID, campaignID)
	if err != nil {
		return err
	}

	return c.JSON(dto.AnalyticsResponse{
		ParticipantID:      summary.ParticipantID,
		CampaignID:         summary.CampaignID,
		ResponseCount:      summary.ResponseCount,
		AvgJoy:             summary.AvgJoy,
		AvgAchievement:     summary.AvgAchievement,
		AvgMeaningfulness:  summary.AvgMeaningfulness,
		OverallScore:       summary.OverallScore,
		StrongestDimension: summary.StrongestDimension,
		WeakestDimension:   summary.WeakestDimension,
		Streak:             summary.Streak,
		Responses:          dto.FromResponses(summary.History),
	})
}
