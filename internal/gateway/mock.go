package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockMessage is one message recorded by the mock sender.
type MockMessage struct {
	To   string
	Body string
	SID  string
}

// MockSender simulates delivery without network egress. Every send succeeds
// deterministically and is recorded in memory, which keeps end-to-end
// testing free of provider cost.
type MockSender struct {
	mu     sync.Mutex
	sent   []MockMessage
	logger *zap.Logger
}

// NewMockSender creates the mock variant.
func NewMockSender(logger *zap.Logger) *MockSender {
	return &MockSender{logger: logger}
}

// Name identifies the variant in logs.
func (m *MockSender) Name() string { return "mock" }

// Send records the message and reports success.
func (m *MockSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	sid := "mock_" + uuid.NewString()

	m.mu.Lock()
	m.sent = append(m.sent, MockMessage{To: to, Body: body, SID: sid})
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("mock sms sent", zap.String("to", to), zap.String("sid", sid))
	}
	return &SendResult{ProviderSID: sid}, nil
}

// Sent returns a copy of all recorded messages.
func (m *MockSender) Sent() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
