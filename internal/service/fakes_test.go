package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/basa-org/basa-events/internal/checkout"
	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/repository"
)

type fakeEvents struct {
	byID map[string]*model.Event

	CreateFunc func(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	UpdateFunc func(ctx context.Context, id string, req model.CreateEventRequest) (*model.Event, error)
}

func newFakeEvents(events ...*model.Event) *fakeEvents {
	f := &fakeEvents{byID: map[string]*model.Event{}}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEvents) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, req)
	}
	return &model.Event{ID: "evt-new", Slug: req.Slug, Title: req.Title, Capacity: req.Capacity}, nil
}

func (f *fakeEvents) Update(ctx context.Context, id string, req model.CreateEventRequest) (*model.Event, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, req)
	}
	if _, ok := f.byID[id]; !ok {
		return nil, repository.ErrNotFound
	}
	return &model.Event{ID: id, Slug: req.Slug, Title: req.Title, Capacity: req.Capacity}, nil
}

func (f *fakeEvents) List(_ context.Context) ([]model.Event, error) {
	out := make([]model.Event, 0, len(f.byID))
	for _, e := range f.byID {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvents) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
	for _, e := range f.byID {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeRegistrations records purchases in memory keyed by intent id.
type fakeRegistrations struct {
	mu        sync.Mutex
	events    *fakeEvents
	byIntent  map[string]*repository.PurchaseRecord
	recorded  int
	attendees [][]model.Attendee

	RecordErr error
}

func newFakeRegistrations(events *fakeEvents) *fakeRegistrations {
	return &fakeRegistrations{events: events, byIntent: map[string]*repository.PurchaseRecord{}}
}

func (f *fakeRegistrations) write(p model.TicketPurchase, attendees []model.Attendee, enforce bool) (*repository.PurchaseRecord, error) {
	e, ok := f.events.byID[p.EventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if enforce && e.RegisteredCount+len(attendees) > e.Capacity {
		return nil, repository.ErrEventFull
	}
	if p.PaymentIntentID != "" {
		if _, dup := f.byIntent[p.PaymentIntentID]; dup {
			return nil, repository.ErrAlreadyRecorded
		}
	}

	f.recorded++
	p.ID = fmt.Sprintf("purchase-%d", f.recorded)
	p.TicketCount = len(attendees)
	p.CreatedAt = time.Now().UTC()
	rec := &repository.PurchaseRecord{Purchase: p}
	for i, a := range attendees {
		rec.Registrations = append(rec.Registrations, model.Registration{
			ID:         fmt.Sprintf("%s-reg-%d", p.ID, i+1),
			EventID:    p.EventID,
			PurchaseID: p.ID,
			Name:       a.Name,
			Email:      a.Email,
			Company:    a.Company,
			Phone:      a.Phone,
			CreatedAt:  p.CreatedAt,
		})
	}
	e.RegisteredCount += len(attendees)
	if over := e.RegisteredCount - e.Capacity; over > 0 {
		rec.Overbooked = over
	}
	if p.PaymentIntentID != "" {
		f.byIntent[p.PaymentIntentID] = rec
	}
	f.attendees = append(f.attendees, attendees)
	return rec, nil
}

func (f *fakeRegistrations) Book(_ context.Context, p model.TicketPurchase, attendees []model.Attendee) (*repository.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(p, attendees, true)
}

func (f *fakeRegistrations) RecordPaid(_ context.Context, p model.TicketPurchase, attendees []model.Attendee) (*repository.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RecordErr != nil {
		return nil, f.RecordErr
	}
	return f.write(p, attendees, false)
}

func (f *fakeRegistrations) GetByPaymentIntent(_ context.Context, intentID string) (*repository.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byIntent[intentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRegistrations) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Registration
	for _, rec := range f.byIntent {
		for _, r := range rec.Registrations {
			if r.EventID == eventID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type fakeCheckouts struct {
	mu      sync.Mutex
	pending map[string]checkout.Pending
	SaveErr error
}

func newFakeCheckouts() *fakeCheckouts {
	return &fakeCheckouts{pending: map[string]checkout.Pending{}}
}

func (f *fakeCheckouts) Save(_ context.Context, p checkout.Pending) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.pending[p.IntentID] = p
	return nil
}

func (f *fakeCheckouts) Get(_ context.Context, intentID string) (*checkout.Pending, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pending[intentID]
	if !ok {
		return nil, checkout.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCheckouts) Delete(_ context.Context, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, intentID)
	return nil
}

type published struct {
	Queue string
	Value any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	Err  error
}

func (f *fakePublisher) Publish(_ context.Context, queue string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, published{Queue: queue, Value: v})
	return f.Err
}

func (f *fakePublisher) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.sent...)
}

type fakeMembers struct {
	mu      sync.Mutex
	members []model.Member
	payment []model.MemberPayment
}

func (f *fakeMembers) CreateWithPayment(_ context.Context, m model.Member, p model.MemberPayment) (*model.Member, *model.MemberPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.members {
		if existing.Email == m.Email {
			return nil, nil, repository.ErrMemberExists
		}
	}
	for _, existing := range f.payment {
		if p.PaymentIntentID != "" && existing.PaymentIntentID == p.PaymentIntentID {
			return nil, nil, repository.ErrPaymentAlreadyUsed
		}
	}
	m.ID = fmt.Sprintf("member-%d", len(f.members)+1)
	m.CreatedAt = time.Now().UTC()
	p.ID = "pay-" + m.ID
	p.MemberID = m.ID
	p.CreatedAt = m.CreatedAt
	f.members = append(f.members, m)
	f.payment = append(f.payment, p)
	return &m, &p, nil
}

func (f *fakeMembers) List(_ context.Context) ([]model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Member(nil), f.members...), nil
}
