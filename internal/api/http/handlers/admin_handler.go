package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/api/dto"
	"github.com/spec-kit/wellbeing-survey-service/internal/service"
	apperrors "github.com/spec-kit/wellbeing-survey-service/pkg/util"
)

// AdminHandler exposes the administrative boundary: participant and campaign
// creation, manual cycle runs and test sends.
type AdminHandler struct {
	admin     *service.AdminService
	scheduler *service.SchedulerService
	logger    *zap.Logger
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(admin *service.AdminService, scheduler *service.SchedulerService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, scheduler: scheduler, logger: logger}
}

// CreateParticipant enrolls a participant.
func (h *AdminHandler) CreateParticipant(c *fiber.Ctx) error {
	var req dto.CreateParticipantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	participant, err := h.admin.CreateParticipant(c.UserContext(), req.Name, req.Phone)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromParticipant(participant))
}

// CreateCampaign creates a campaign.
func (h *AdminHandler) CreateCampaign(c *fiber.Ctx) error {
	var req dto.CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	var start, end *time.Time
	if req.StartDate != "" && req.EndDate != "" {
		s, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return apperrors.NewValidationError("invalid start_date, expected YYYY-MM-DD", nil)
		}
		e, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return apperrors.NewValidationError("invalid end_date, expected YYYY-MM-DD", nil)
		}
		start, end = &s, &e
	}

	campaign, err := h.admin.CreateCampaign(c.UserContext(), req.Name, req.Description, start, end)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCampaign(campaign))
}

// TestSend pushes a test SMS through the active gateway.
func (h *AdminHandler) TestSend(c *fiber.Ctx) error {
	var req dto.TestSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	record, err := h.admin.SendTestMessage(c.UserContext(), req.Phone, req.Message)
	if err != nil {
		if record != nil {
			// Send failed after retries; surface the delivery record so the
			// operator sees attempt count and last error.
			return c.Status(fiber.StatusBadGateway).JSON(dto.FromDelivery(record))
		}
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return c.JSON(dto.FromDelivery(record))
}

// RunCycle triggers the daily dispatch cycle for today, useful when
// operating the scheduler manually.
func (h *AdminHandler) RunCycle(c *fiber.Ctx) error {
	stats, err := h.scheduler.RunDailyCycle(c.UserContext(), time.Now())
	if err != nil {
		h.logger.Error("manual cycle run interrupted", zap.Error(err))
	}
	return c.JSON(fiber.Map{
		"dispatched": stats.Dispatched,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
	})
}
