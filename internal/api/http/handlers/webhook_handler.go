package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/observability"
	"github.com/spec-kit/wellbeing-survey-service/internal/service"
)

// WebhookHandler receives inbound SMS callbacks from the provider.
type WebhookHandler struct {
	inbound *service.InboundService
	metrics *observability.Metrics
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(inbound *service.InboundService, metrics *observability.Metrics) *WebhookHandler {
	return &WebhookHandler{inbound: inbound, metrics: metrics}
}

// ReceiveSMS handles the provider callback. Twilio posts form-encoded
// From/Body/MessageSid. User-correctable failures still return 200 — the
// participant already got a corrective SMS and the provider must not retry.
func (h *WebhookHandler) ReceiveSMS(c *fiber.Ctx) error {
	from := strings.TrimSpace(c.FormValue("From"))
	body := c.FormValue("Body")
	sid := strings.TrimSpace(c.FormValue("MessageSid"))

	if from == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fiber.Map{"code": "VALIDATION_FAILED", "message": "From is required"},
		})
	}

	result, err := h.inbound.HandleInbound(c.UserContext(), from, body, sid)
	if err != nil {
		if replyErr, ok := domain.ReplyErrorFrom(err); ok {
			h.metrics.RecordInbound(string(replyErr.Kind))
			return c.JSON(fiber.Map{
				"status": "rejected",
				"code":   string(replyErr.Kind),
			})
		}
		return err
	}

	if result.Duplicate {
		h.metrics.RecordInbound("DUPLICATE")
		return c.JSON(fiber.Map{"status": "duplicate"})
	}

	h.metrics.RecordInbound("RECORDED")
	return c.JSON(fiber.Map{
		"status":      "recorded",
		"response_id": result.ResponseID,
	})
}
