package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/wellbeing-survey-service/internal/domain"
	"github.com/spec-kit/wellbeing-survey-service/internal/events"
)

// In-memory fakes for the repository and gateway collaborators. They keep
// the same not-found convention as the pgx-backed implementations.

type fakeParticipantRepo struct {
	byID    map[string]domain.Participant
	byPhone map[string]domain.Participant
}

func newFakeParticipantRepo(participants ...domain.Participant) *fakeParticipantRepo {
	r := &fakeParticipantRepo{
		byID:    make(map[string]domain.Participant),
		byPhone: make(map[string]domain.Participant),
	}
	for _, p := range participants {
		r.byID[p.ID] = p
		r.byPhone[p.PhoneNumber] = p
	}
	return r
}

func (r *fakeParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	r.byID[p.ID] = *p
	r.byPhone[p.PhoneNumber] = *p
	return nil
}

func (r *fakeParticipantRepo) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *fakeParticipantRepo) GetByPhone(ctx context.Context, phone string) (*domain.Participant, error) {
	p, ok := r.byPhone[phone]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *fakeParticipantRepo) ListEnrolled(ctx context.Context) ([]domain.Participant, error) {
	var out []domain.Participant
	for _, p := range r.byID {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCampaignRepo struct {
	campaigns []domain.Campaign
}

func (r *fakeCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	r.campaigns = append(r.campaigns, *c)
	return nil
}

func (r *fakeCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	for _, c := range r.campaigns {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCampaignRepo) ListActive(ctx context.Context) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for _, c := range r.campaigns {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

type instanceKey struct {
	participantID string
	campaignID    string
	surveyDate    string
}

type fakeInstanceRepo struct {
	mu        sync.Mutex
	instances map[string]*domain.SurveyInstance
	keys      map[instanceKey]string
	nextID    int
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{
		instances: make(map[string]*domain.SurveyInstance),
		keys:      make(map[instanceKey]string),
	}
}

func (r *fakeInstanceRepo) CreateIfAbsent(ctx context.Context, instance *domain.SurveyInstance) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := instanceKey{
		participantID: instance.ParticipantID,
		campaignID:    instance.CampaignID,
		surveyDate:    domain.DateOnly(instance.SurveyDate).Format("2006-01-02"),
	}
	if _, exists := r.keys[key]; exists {
		return false, nil
	}
	r.nextID++
	instance.ID = fmt.Sprintf("instance-%d", r.nextID)
	instance.Status = domain.SurveyStatusPending
	instance.CreatedAt = time.Now()
	clone := *instance
	r.instances[instance.ID] = &clone
	r.keys[key] = instance.ID
	return true, nil
}

func (r *fakeInstanceRepo) GetByID(ctx context.Context, id string) (*domain.SurveyInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *inst
	return &clone, nil
}

func (r *fakeInstanceRepo) LatestPending(ctx context.Context, participantID string) (*domain.SurveyInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.SurveyInstance
	for _, inst := range r.instances {
		if inst.ParticipantID != participantID || inst.Status != domain.SurveyStatusPending {
			continue
		}
		if latest == nil || inst.SurveyDate.After(latest.SurveyDate) {
			latest = inst
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeInstanceRepo) MarkAnswered(ctx context.Context, id string, answeredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok || inst.Status != domain.SurveyStatusPending {
		return false, nil
	}
	inst.Status = domain.SurveyStatusAnswered
	inst.AnsweredAt = &answeredAt
	return true, nil
}

func (r *fakeInstanceRepo) RevertAnswered(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[id]; ok && inst.Status == domain.SurveyStatusAnswered {
		inst.Status = domain.SurveyStatusPending
		inst.AnsweredAt = nil
	}
	return nil
}

func (r *fakeInstanceRepo) AttachDelivery(ctx context.Context, id, deliveryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[id]; ok {
		inst.DeliveryID = &deliveryID
	}
	return nil
}

func (r *fakeInstanceRepo) ExpirePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, inst := range r.instances {
		if inst.Status == domain.SurveyStatusPending && inst.SurveyDate.Before(cutoff) {
			inst.Status = domain.SurveyStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeInstanceRepo) pendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, inst := range r.instances {
		if inst.Status == domain.SurveyStatusPending {
			n++
		}
	}
	return n
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses []domain.Response
	nextID    int
	// createErr fails the next Create once, then clears.
	createErr error
}

func (r *fakeResponseRepo) Create(ctx context.Context, response *domain.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	r.nextID++
	response.ID = fmt.Sprintf("response-%d", r.nextID)
	r.responses = append(r.responses, *response)
	return nil
}

func (r *fakeResponseRepo) GetByInstance(ctx context.Context, instanceID string) (*domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, resp := range r.responses {
		if resp.SurveyInstanceID == instanceID {
			return &resp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeResponseRepo) ListAnswered(ctx context.Context, participantID, campaignID string) ([]domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Response
	for _, resp := range r.responses {
		if resp.ParticipantID == participantID && resp.CampaignID == campaignID {
			out = append(out, resp)
		}
	}
	return out, nil
}

type fakeDeliveryRepo struct {
	mu      sync.Mutex
	records map[string]*domain.DeliveryRecord
	nextID  int
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{records: make(map[string]*domain.DeliveryRecord)}
}

func (r *fakeDeliveryRepo) Create(ctx context.Context, record *domain.DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	record.ID = fmt.Sprintf("delivery-%d", r.nextID)
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *fakeDeliveryRepo) Update(ctx context.Context, record *domain.DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *fakeDeliveryRepo) GetByProviderSID(ctx context.Context, sid string) (*domain.DeliveryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ProviderSID != nil && *rec.ProviderSID == sid {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDeliveryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

type fakeCycleRepo struct {
	mu      sync.Mutex
	markers map[string]domain.CycleMarker
}

func newFakeCycleRepo() *fakeCycleRepo {
	return &fakeCycleRepo{markers: make(map[string]domain.CycleMarker)}
}

func (r *fakeCycleRepo) Record(ctx context.Context, marker *domain.CycleMarker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[marker.CycleDate.Format("2006-01-02")] = *marker
	return nil
}

func (r *fakeCycleRepo) Get(ctx context.Context, cycleDate string) (*domain.CycleMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[cycleDate]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

// dispatchedMessage is one send captured by the fake dispatcher.
type dispatchedMessage struct {
	Kind domain.DeliveryKind
	To   string
	Body string
}

// fakeMessageDispatcher records sends; failFor forces failures per recipient.
type fakeMessageDispatcher struct {
	mu      sync.Mutex
	sent    []dispatchedMessage
	failFor map[string]error
	nextID  int
}

func newFakeMessageDispatcher() *fakeMessageDispatcher {
	return &fakeMessageDispatcher{failFor: make(map[string]error)}
}

func (d *fakeMessageDispatcher) Dispatch(ctx context.Context, kind domain.DeliveryKind, to, body string) (*domain.DeliveryRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	record := &domain.DeliveryRecord{
		ID:           fmt.Sprintf("delivery-%d", d.nextID),
		Kind:         kind,
		ToNumber:     to,
		Body:         body,
		AttemptCount: 1,
	}
	if err, ok := d.failFor[to]; ok {
		record.Status = domain.DeliveryStatusFailed
		record.LastError = err.Error()
		return record, err
	}
	record.Status = domain.DeliveryStatusSent
	d.sent = append(d.sent, dispatchedMessage{Kind: kind, To: to, Body: body})
	return record, nil
}

func (d *fakeMessageDispatcher) messages() []dispatchedMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dispatchedMessage, len(d.sent))
	copy(out, d.sent)
	return out
}

// fakeReplayGuard mirrors the redis SETNX behaviour in memory.
type fakeReplayGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeReplayGuard() *fakeReplayGuard {
	return &fakeReplayGuard{seen: make(map[string]bool)}
}

func (g *fakeReplayGuard) FirstSeen(ctx context.Context, providerSID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen[providerSID] {
		return false, nil
	}
	g.seen[providerSID] = true
	return true, nil
}

func (g *fakeReplayGuard) Release(ctx context.Context, providerSID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, providerSID)
	return nil
}

// fakeBus captures published events synchronously.
type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBus) Publish(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (b *fakeBus) byType(eventType events.EventType) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
