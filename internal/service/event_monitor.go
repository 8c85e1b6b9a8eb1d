package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
	"github.com/spec-kit/wellbeing-survey-service/internal/observability"
)

// EventMonitor subscribes to domain events and records them on the metrics
// counters, keeping services unaware of the observability surface.
type EventMonitor struct {
	bus     events.Dispatcher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewEventMonitor creates the monitor.
func NewEventMonitor(bus events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *EventMonitor {
	return &EventMonitor{bus: bus, metrics: metrics, logger: logger}
}

// RegisterHandlers subscribes to events.
func (m *EventMonitor) RegisterHandlers() {
	if m.bus == nil {
		return
	}
	m.bus.Subscribe(events.EventSurveyDispatched, m.handleSurveyDispatched)
	m.bus.Subscribe(events.EventResponseRecorded, m.handleResponseRecorded)
	m.bus.Subscribe(events.EventDeliveryFailed, m.handleDeliveryFailed)
	m.bus.Subscribe(events.EventSurveysExpired, m.handleSurveysExpired)
}

func (m *EventMonitor) handleSurveyDispatched(ctx context.Context, event events.Event) error {
	m.metrics.RecordDelivery(string(domain.DeliveryKindSurvey), string(domain.DeliveryStatusSent))
	m.logger.Info("SurveyDispatched", zap.Any("payload", event.Payload))
	return nil
}

func (m *EventMonitor) handleResponseRecorded(ctx context.Context, event events.Event) error {
	m.logger.Info("ResponseRecorded", zap.Any("payload", event.Payload))
	return nil
}

func (m *EventMonitor) handleDeliveryFailed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DeliveryFailedPayload)
	if ok {
		m.metrics.RecordDelivery(string(payload.Kind), string(domain.DeliveryStatusFailed))
	}
	m.logger.Warn("DeliveryFailed", zap.Any("payload", event.Payload))
	return nil
}

func (m *EventMonitor) handleSurveysExpired(ctx context.Context, event events.Event) error {
	m.logger.Info("SurveysExpired", zap.Any("payload", event.Payload))
	return nil
}
