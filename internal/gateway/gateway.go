// Package gateway sends text messages through an interchangeable provider:
// a live Twilio-backed sender or a deterministic mock. Callers go through
// the Dispatcher, which adds retry and DeliveryRecord bookkeeping, and stay
// oblivious to which sender is active.
package gateway

import "context"

// SendResult reports provider acceptance of a single message.
type SendResult struct {
	ProviderSID string
}

// Sender is the capability interface both variants implement. Send errors
// are classified via domain.ErrGatewayTransient / domain.ErrGatewayPermanent.
type Sender interface {
	Send(ctx context.Context, to, body string) (*SendResult, error)
	Name() string
}
