package registration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/pricing"
)

var (
	// ErrIncomplete is returned when an attendee is missing a name or email.
	ErrIncomplete = errors.New("attendee information incomplete")
	// ErrNotEnoughSpots is returned when more tickets are selected than the
	// event has left.
	ErrNotEnoughSpots = errors.New("not enough spots remaining")
	// ErrSubmitInProgress is returned when Continue is called while an
	// earlier call has not returned.
	ErrSubmitInProgress = errors.New("registration is already being submitted")
)

// PaymentAPI creates the payment intent for a checkout.
type PaymentAPI interface {
	CreateEventPaymentIntent(ctx context.Context, req model.EventPaymentIntentRequest) (*model.EventPaymentIntentResponse, error)
}

// Checkout is what the payment step needs once the intent exists.
type Checkout struct {
	EventID         string
	TicketCount     int
	ClientSecret    string
	PaymentIntentID string
	AmountCents     int64
	Quote           model.Quote
}

// Form is the registration form for one event.
type Form struct {
	event     model.Event
	isMember  bool
	api       PaymentAPI
	Attendees *Collector

	mu         sync.Mutex
	submitting bool
}

// NewForm starts a form for event.
func NewForm(event model.Event, isMember bool, api PaymentAPI) *Form {
	return &Form{
		event:     event,
		isMember:  isMember,
		api:       api,
		Attendees: NewCollector(event.AvailableSpots()),
	}
}

// Quote is the price shown for the current selection.
func (f *Form) Quote() model.Quote {
	return pricing.ForEvent(&f.event, f.Attendees.TicketCount(), f.isMember)
}

// Submitting reports whether Continue is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Continue validates the form and requests the payment intent. Nothing is
// sent when validation fails.
func (f *Form) Continue(ctx context.Context) (*Checkout, error) {
	if err := f.Attendees.Validate(); err != nil {
		return nil, err
	}
	n := f.Attendees.TicketCount()
	if spots := f.event.AvailableSpots(); n > spots {
		return nil, fmt.Errorf("%w: only %d left", ErrNotEnoughSpots, spots)
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	f.submitting = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	resp, err := f.api.CreateEventPaymentIntent(ctx, model.EventPaymentIntentRequest{
		EventID:      f.event.ID,
		TicketCount:  n,
		IsMember:     f.isMember,
		AttendeeInfo: f.Attendees.Attendees(),
	})
	if err != nil {
		return nil, err
	}

	quote := resp.Quote
	if quote.TicketCount == 0 {
		quote = f.Quote()
	}
	return &Checkout{
		EventID:         f.event.ID,
		TicketCount:     n,
		ClientSecret:    resp.ClientSecret,
		PaymentIntentID: resp.PaymentIntentID,
		AmountCents:     resp.AmountCents,
		Quote:           quote,
	}, nil
}
