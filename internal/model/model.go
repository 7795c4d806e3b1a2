// Package model defines the core domain types for BASA event registration
// and membership payments.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Speaker describes the headline speaker of an event.
type Speaker struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Topic string `json:"topic"`
}

// Event represents a ticketed event. RegisteredCount is derived from the
// registrations table and is not stored on the event row.
type Event struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	StartsAt        time.Time       `json:"startsAt"`
	EndsAt          time.Time       `json:"endsAt"`
	Location        string          `json:"location"`
	Capacity        int             `json:"capacity"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	MemberPrice     decimal.Decimal `json:"memberPrice"`
	Features        []string        `json:"features"`
	Speaker         Speaker         `json:"speaker"`
	RegisteredCount int             `json:"registeredCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AvailableSpots returns the number of remaining tickets, never negative.
func (e *Event) AvailableSpots() int {
	if n := e.Capacity - e.RegisteredCount; n > 0 {
		return n
	}
	return 0
}

// IsFull returns true when no tickets remain.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// Attendee is the per-ticket contact captured by the registration form.
type Attendee struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Registration is one attendee's seat at an event, created once the ticket
// purchase it belongs to has been paid (or added manually by an admin).
type Registration struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	PurchaseID string    `json:"purchaseId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Company    string    `json:"company,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TicketPurchase is the transaction that a batch of registrations hangs off.
// PaymentIntentID is empty for manual admin registrations.
type TicketPurchase struct {
	ID              string    `json:"id"`
	EventID         string    `json:"eventId"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	TicketCount     int       `json:"ticketCount"`
	IsMember        bool      `json:"isMember"`
	AmountCents     int64     `json:"amountCents"`
	Currency        string    `json:"currency"`
	ContactName     string    `json:"contactName"`
	ContactEmail    string    `json:"contactEmail"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateEventRequest is the admin payload for creating or replacing an event.
type CreateEventRequest struct {
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartsAt    time.Time       `json:"startsAt"`
	EndsAt      time.Time       `json:"endsAt"`
	Location    string          `json:"location"`
	Capacity    int             `json:"capacity"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	MemberPrice decimal.Decimal `json:"memberPrice"`
	Features    []string        `json:"features"`
	Speaker     Speaker         `json:"speaker"`
}

// EventPaymentIntentRequest is the body of POST /payments/events.
type EventPaymentIntentRequest struct {
	EventID      string     `json:"eventId"`
	TicketCount  int        `json:"ticketCount"`
	IsMember     bool       `json:"isMember"`
	AttendeeInfo []Attendee `json:"attendeeInfo"`
}

// EventPaymentIntentResponse carries the client secret used to confirm the
// payment, plus the server-side quote the amount was derived from.
type EventPaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountCents     int64  `json:"amountCents"`
	Currency        string `json:"currency"`
	Quote           Quote  `json:"quote"`
}

// ConfirmEventPaymentRequest is the body of POST /payments/events/confirm.
type ConfirmEventPaymentRequest struct {
	PaymentID string `json:"paymentId"`
}

// ConfirmEventPaymentResponse lists the registrations recorded for a purchase.
type ConfirmEventPaymentResponse struct {
	Purchase      TicketPurchase `json:"purchase"`
	Registrations []Registration `json:"registrations"`
}

// ManualRegistrationRequest is the admin payload for a free registration.
type ManualRegistrationRequest struct {
	Attendees []Attendee `json:"attendees"`
}

// Quote is the ephemeral price breakdown shown before payment. It is derived,
// never persisted.
type Quote struct {
	TicketCount        int             `json:"ticketCount"`
	PricePerTicket     decimal.Decimal `json:"pricePerTicket"`
	GrossTotal         decimal.Decimal `json:"grossTotal"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountPercentage int             `json:"discountPercentage"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
