package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for delivery and inbound
// processing outcomes.
type Metrics struct {
	mu        sync.Mutex
	delivered map[string]int64
	inbound   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		delivered: make(map[string]int64),
		inbound:   make(map[string]int64),
	}
}

// RecordDelivery increments the counter for a delivery kind and status.
func (m *Metrics) RecordDelivery(kind, status string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered[kind+"|"+status]++
}

// RecordInbound increments the counter for an inbound handling result.
func (m *Metrics) RecordInbound(result string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound[result]++
}

// DeliverySnapshot returns a copy of the delivery counters.
func (m *Metrics) DeliverySnapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.delivered))
	for k, v := range m.delivered {
		out[k] = v
	}
	return out
}

// InboundSnapshot returns a copy of the inbound counters.
func (m *Metrics) InboundSnapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.inbound))
	for k, v := range m.inbound {
		out[k] = v
	}
	return out
}
