package service

import (
	"context"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
)

// MessageDispatcher is what services need from the delivery gateway: one
// retried, bookkept send. Satisfied by gateway.Dispatcher.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, kind domain.DeliveryKind, to, body string) (*domain.DeliveryRecord, error)
}
