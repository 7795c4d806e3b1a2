// Package service implements business logic, validation, and orchestration
// between HTTP handlers, the repository layer and the payment processor.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/basa-org/basa-events/internal/checkout"
	"github.com/basa-org/basa-events/internal/metrics"
	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/notify"
	"github.com/basa-org/basa-events/internal/payment"
	"github.com/basa-org/basa-events/internal/pricing"
	"github.com/basa-org/basa-events/internal/repository"
)

// EventStore is the event persistence used by EventService.
type EventStore interface {
	Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	Update(ctx context.Context, id string, req model.CreateEventRequest) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
}

// RegistrationStore is the purchase/registration persistence used by EventService.
type RegistrationStore interface {
	Book(ctx context.Context, p model.TicketPurchase, attendees []model.Attendee) (*repository.PurchaseRecord, error)
	RecordPaid(ctx context.Context, p model.TicketPurchase, attendees []model.Attendee) (*repository.PurchaseRecord, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*repository.PurchaseRecord, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

// CheckoutStore keeps attendee lists between intent creation and confirmation.
type CheckoutStore interface {
	Save(ctx context.Context, p checkout.Pending) error
	Get(ctx context.Context, intentID string) (*checkout.Pending, error)
	Delete(ctx context.Context, intentID string) error
}

// EventService orchestrates event lookup, quoting and the ticket checkout.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
	checkouts     CheckoutStore
	payments      *payment.Initiator
	publisher     notify.Publisher
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	registrations RegistrationStore,
	checkouts CheckoutStore,
	payments *payment.Initiator,
	publisher notify.Publisher,
) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		checkouts:     checkouts,
		payments:      payments,
		publisher:     publisher,
	}
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// GetEvent resolves an event by slug.
func (s *EventService) GetEvent(ctx context.Context, slug string) (*model.Event, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, invalid("event slug is required")
	}
	event, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// lookup resolves ref as an event id, then as a slug.
func (s *EventService) lookup(ctx context.Context, ref string) (*model.Event, error) {
	event, err := s.events.GetByID(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		event, err = s.events.GetBySlug(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func checkCapacity(event *model.Event, tickets int) error {
	if spots := event.AvailableSpots(); tickets > spots {
		return fmt.Errorf("%w: requested %d, only %d available", ErrCapacityExceeded, tickets, spots)
	}
	return nil
}

// Quote prices tickets for display. It uses the same calculation as the
// checkout and rejects counts beyond the remaining spots.
func (s *EventService) Quote(ctx context.Context, slug string, tickets int, isMember bool) (*model.Quote, error) {
	if tickets < 1 {
		return nil, invalid("ticket count must be at least 1")
	}
	event, err := s.GetEvent(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(event, tickets); err != nil {
		return nil, err
	}
	q := pricing.ForEvent(event, tickets, isMember)
	return &q, nil
}

// CreateEventPaymentIntent validates a checkout, prices it and creates the
// payment intent for the net total.
//
// The capacity comparison below is a plain read of the current registration
// count. It is not a reservation: concurrent checkouts for the last spots can
// all pass it. See RegistrationRepository.RecordPaid for how that surfaces.
func (s *EventService) CreateEventPaymentIntent(ctx context.Context, req model.EventPaymentIntentRequest) (*model.EventPaymentIntentResponse, error) {
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		return nil, invalid("eventId is required")
	}
	if req.TicketCount < 1 {
		return nil, invalid("ticket count must be at least 1")
	}
	attendees, err := validateAttendees(req.AttendeeInfo, req.TicketCount)
	if err != nil {
		return nil, err
	}

	event, err := s.lookup(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(event, req.TicketCount); err != nil {
		metrics.PaymentIntent(metrics.FlowEvent, metrics.OutcomeRejected)
		return nil, err
	}

	quote := pricing.ForEvent(event, req.TicketCount, req.IsMember)
	if pricing.ToMinorUnits(quote.TotalPrice) == 0 {
		return nil, ErrNoPaymentRequired
	}

	names := make([]string, len(attendees))
	for i, a := range attendees {
		names[i] = a.Name
	}

	intent, err := s.payments.Initiate(ctx, payment.EventTicketPurchase{
		EventID:    event.ID,
		EventTitle: event.Title,
		Quote:      quote,
		IsMember:   req.IsMember,
		Primary:    attendees[0],
		Names:      names,
	})
	if err != nil {
		metrics.PaymentIntent(metrics.FlowEvent, metrics.OutcomeFailed)
		slog.ErrorContext(ctx, "event payment intent failed", "event_id", event.ID, "tickets", req.TicketCount, "error", err)
		return nil, paymentSetupError(err)
	}
	metrics.PaymentIntent(metrics.FlowEvent, metrics.OutcomeCreated)

	pending := checkout.Pending{
		IntentID:    intent.ID,
		EventID:     event.ID,
		TicketCount: req.TicketCount,
		IsMember:    req.IsMember,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		Attendees:   attendees,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.checkouts.Save(ctx, pending); err != nil {
		// The intent metadata still carries the names and primary contact.
		slog.WarnContext(ctx, "pending checkout not saved", "payment_intent_id", intent.ID, "error", err)
	}

	return &model.EventPaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
		Quote:           quote,
	}, nil
}

// ConfirmEventPayment records the registrations for a paid event intent.
// Confirming the same intent again returns the registrations recorded the
// first time.
func (s *EventService) ConfirmEventPayment(ctx context.Context, paymentID string) (*model.ConfirmEventPaymentResponse, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, invalid("paymentId is required")
	}

	if rec, err := s.registrations.GetByPaymentIntent(ctx, paymentID); err == nil {
		return purchaseResponse(rec), nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup purchase: %w", err)
	}

	intent, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, paymentSetupError(err)
	}
	if intent.Metadata[payment.MetaType] != payment.TypeEventRegistration {
		return nil, invalid("payment %s is not an event registration", paymentID)
	}
	if !intent.Succeeded() {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, intent.Status)
	}

	event, err := s.events.GetByID(ctx, intent.Metadata[payment.MetaEventID])
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	attendees, isMember := s.attendeesFor(ctx, intent)
	primary := attendees[0]

	rec, err := s.registrations.RecordPaid(ctx, model.TicketPurchase{
		EventID:         event.ID,
		PaymentIntentID: intent.ID,
		IsMember:        isMember,
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
		ContactName:     primary.Name,
		ContactEmail:    primary.Email,
	}, attendees)
	if errors.Is(err, repository.ErrAlreadyRecorded) {
		rec, err = s.registrations.GetByPaymentIntent(ctx, intent.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup purchase: %w", err)
		}
		return purchaseResponse(rec), nil
	}
	if err != nil {
		return nil, fmt.Errorf("record registrations: %w", err)
	}

	metrics.Registrations("paid", len(rec.Registrations))
	if rec.Overbooked > 0 {
		metrics.Overbooked(min(rec.Overbooked, len(rec.Registrations)))
		slog.WarnContext(ctx, "event overbooked",
			"event_id", event.ID, "capacity", event.Capacity,
			"over_by", rec.Overbooked, "payment_intent_id", intent.ID)
	}

	if err := s.checkouts.Delete(ctx, intent.ID); err != nil {
		slog.WarnContext(ctx, "pending checkout not deleted", "payment_intent_id", intent.ID, "error", err)
	}
	s.publishConfirmed(ctx, event, rec)

	return purchaseResponse(rec), nil
}

// attendeesFor returns the attendee list for a paid intent: the pending
// checkout when it is still around, otherwise the names in the intent
// metadata, all under the primary contact's email.
func (s *EventService) attendeesFor(ctx context.Context, intent *payment.Intent) ([]model.Attendee, bool) {
	md := intent.Metadata
	isMember, _ := strconv.ParseBool(md[payment.MetaIsMember])

	pending, err := s.checkouts.Get(ctx, intent.ID)
	if err == nil && len(pending.Attendees) > 0 {
		return pending.Attendees, pending.IsMember
	}
	if err != nil && !errors.Is(err, checkout.ErrNotFound) {
		slog.WarnContext(ctx, "pending checkout unavailable", "payment_intent_id", intent.ID, "error", err)
	}

	primary := model.Attendee{Name: md[payment.MetaPrimaryName], Email: md[payment.MetaPrimaryEmail]}
	count, _ := strconv.Atoi(md[payment.MetaTicketCount])
	names := payment.DecodeNames(md[payment.MetaAttendees])
	if count < 1 {
		count = max(len(names), 1)
	}

	attendees := make([]model.Attendee, count)
	for i := range attendees {
		attendees[i] = model.Attendee{Name: primary.Name, Email: primary.Email}
		if i < len(names) {
			attendees[i].Name = names[i]
		}
	}
	return attendees, isMember
}

func (s *EventService) publishConfirmed(ctx context.Context, event *model.Event, rec *repository.PurchaseRecord) {
	attendees := make([]model.Attendee, len(rec.Registrations))
	for i, r := range rec.Registrations {
		attendees[i] = model.Attendee{Name: r.Name, Email: r.Email, Company: r.Company, Phone: r.Phone}
	}
	ev := notify.RegistrationConfirmed{
		PurchaseID:   rec.Purchase.ID,
		EventID:      event.ID,
		EventTitle:   event.Title,
		EventStarts:  event.StartsAt,
		Location:     event.Location,
		ContactName:  rec.Purchase.ContactName,
		ContactEmail: rec.Purchase.ContactEmail,
		Attendees:    attendees,
		AmountCents:  rec.Purchase.AmountCents,
		Currency:     rec.Purchase.Currency,
		PaymentID:    rec.Purchase.PaymentIntentID,
		ConfirmedAt:  rec.Purchase.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, notify.QueueRegistrationConfirmed, ev); err != nil {
		slog.WarnContext(ctx, "registration confirmation not published", "purchase_id", rec.Purchase.ID, "error", err)
	}
}

// AddManualRegistration books free registrations from the admin console.
// Unlike paid checkouts, the capacity is enforced under the row lock.
func (s *EventService) AddManualRegistration(ctx context.Context, eventID string, req model.ManualRegistrationRequest) (*model.ConfirmEventPaymentResponse, error) {
	if len(req.Attendees) == 0 {
		return nil, invalid("at least one attendee is required")
	}
	attendees, err := validateAttendees(req.Attendees, len(req.Attendees))
	if err != nil {
		return nil, err
	}
	event, err := s.lookup(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rec, err := s.registrations.Book(ctx, model.TicketPurchase{
		EventID:      event.ID,
		Currency:     s.payments.Currency(),
		ContactName:  attendees[0].Name,
		ContactEmail: attendees[0].Email,
	}, attendees)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventFull):
			return nil, fmt.Errorf("%w: event is fully booked", ErrCapacityExceeded)
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("book registrations: %w", err)
	}

	metrics.Registrations("manual", len(rec.Registrations))
	s.publishConfirmed(ctx, event, rec)
	return purchaseResponse(rec), nil
}

// ListRegistrations returns all registrations for an event.
func (s *EventService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	event, err := s.lookup(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, event.ID)
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req, err := validateEvent(req)
	if err != nil {
		return nil, err
	}
	return s.events.Create(ctx, req)
}

// UpdateEvent validates the request and replaces the event's fields.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.CreateEventRequest) (*model.Event, error) {
	req, err := validateEvent(req)
	if err != nil {
		return nil, err
	}
	event, err := s.events.Update(ctx, id, req)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}

func validateEvent(req model.CreateEventRequest) (model.CreateEventRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Title == "" {
		return req, invalid("event title is required")
	}
	if req.Slug == "" {
		req.Slug = slugify(req.Title)
	}
	if !slugPattern.MatchString(req.Slug) {
		return req, invalid("slug may only contain lowercase letters, digits and dashes")
	}
	if req.Capacity <= 0 {
		return req, invalid("capacity must be a positive integer")
	}
	if req.Capacity > 100_000 {
		return req, invalid("capacity cannot exceed 100,000")
	}
	if req.Price.IsNegative() || req.MemberPrice.IsNegative() {
		return req, invalid("prices cannot be negative")
	}
	if req.StartsAt.IsZero() {
		return req, invalid("start time is required")
	}
	if req.EndsAt.IsZero() {
		req.EndsAt = req.StartsAt
	}
	if req.EndsAt.Before(req.StartsAt) {
		return req, invalid("event cannot end before it starts")
	}
	features := req.Features[:0:0]
	for _, f := range req.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	req.Features = features
	return req, nil
}

func purchaseResponse(rec *repository.PurchaseRecord) *model.ConfirmEventPaymentResponse {
	regs := rec.Registrations
	if regs == nil {
		regs = []model.Registration{}
	}
	return &model.ConfirmEventPaymentResponse{Purchase: rec.Purchase, Registrations: regs}
}

// paymentSetupError keeps the processor message visible to the caller.
func paymentSetupError(err error) error {
	if errors.Is(err, payment.ErrInvalidAmount) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if msg, ok := payment.ProviderMessage(err); ok {
		return fmt.Errorf("%w: %w", ErrPaymentSetup, &payment.ProviderError{Message: msg})
	}
	return fmt.Errorf("%w: %v", ErrPaymentSetup, err)
}
