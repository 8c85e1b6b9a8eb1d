package domain

import "time"

// DeliveryStatus enumerates outcomes for an outbound message.
type DeliveryStatus string

const (
	DeliveryStatusQueued DeliveryStatus = "QUEUED"
	DeliveryStatusSent   DeliveryStatus = "SENT"
	DeliveryStatusFailed DeliveryStatus = "FAILED"
)

// DeliveryKind classifies what a message was for.
type DeliveryKind string

const (
	DeliveryKindSurvey     DeliveryKind = "SURVEY"
	DeliveryKindCorrective DeliveryKind = "CORRECTIVE"
	DeliveryKindConfirm    DeliveryKind = "CONFIRMATION"
	DeliveryKindTest       DeliveryKind = "TEST"
)

// DeliveryRecord tracks one message handed to the gateway, across retries.
type DeliveryRecord struct {
	ID           string
	Kind         DeliveryKind
	ToNumber     string
	Body         string
	ProviderSID  *string
	Status       DeliveryStatus
	AttemptCount int
	LastError    string
	CreatedAt    time.Time
	SentAt       *time.Time
}
