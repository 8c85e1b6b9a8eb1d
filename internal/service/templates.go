package service

import (
	"fmt"
	"time"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

const replyFormatHint = "Reply with: joy/achievement/meaningfulness/influence\nExample: 8/7/9/Spent time with family"

// RenderSurveyMessage builds the daily check-in text for a participant.
func RenderSurveyMessage(participant domain.Participant, surveyDate time.Time) string {
	return fmt.Sprintf(`Hi %s! 🌟

Daily Wellbeing Check-in for %s:

Please rate your day yesterday (1-10):

1️⃣ Joy: How much joy did you get?
2️⃣ Achievement: How much achievement did you get?
3️⃣ Meaningfulness: How much meaningfulness did you get?
4️⃣ Influence: What influenced your ratings most?

%s

Thank you for participating! 💙`,
		participant.DisplayName(),
		surveyDate.Format("January 2, 2006"),
		replyFormatHint,
	)
}

// RenderCorrectiveMessage names the specific validation failure and repeats
// the expected format so the participant can retry.
func RenderCorrectiveMessage(replyErr *domain.ReplyError) string {
	var problem string
	switch replyErr.Kind {
	case domain.ErrKindInvalidRating:
		problem = fmt.Sprintf("the %s rating must be a whole number between %d and %d", replyErr.Field, domain.RatingMin, domain.RatingMax)
	case domain.ErrKindMalformedReply:
		problem = "we need all four fields separated by slashes"
	default:
		problem = "we couldn't read your reply"
	}
	return fmt.Sprintf("Sorry, %s.\n\n%s", problem, replyFormatHint)
}

// RenderNoPendingMessage is the neutral prompt for senders with no
// outstanding survey.
func RenderNoPendingMessage() string {
	return "There is no survey awaiting your reply right now. We'll text you when the next check-in is due."
}

// RenderConfirmationMessage thanks the participant and links their insights.
func RenderConfirmationMessage(analyticsURL string) string {
	return fmt.Sprintf("Thank you for your response! 🌟 View your personalized wellbeing insights: %s", analyticsURL)
}

// RenderTestMessage is the default body for admin test sends.
func RenderTestMessage() string {
	return "Hi! Please rate your wellbeing from yesterday on a scale of 1-10:\n\n1. How much joy did you experience?\n2. How much achievement did you feel?\n3. How much meaningfulness did you find?\n\nReply with your ratings and any thoughts!"
}
