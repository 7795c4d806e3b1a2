// Package notify publishes domain events for the transactional mail sender
// and account provisioning, which consume them from RabbitMQ.
package notify

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/basa-org/basa-events/internal/model"
)

// Queue names, also used as routing keys on the default exchange.
const (
	QueueRegistrationConfirmed = "registration.confirmed"
	QueueMemberCreated         = "member.created"
)

// RegistrationConfirmed is published once a ticket purchase has been
// recorded. It carries enough to render the confirmation email without
// querying the database.
type RegistrationConfirmed struct {
	PurchaseID   string           `json:"purchaseId"`
	EventID      string           `json:"eventId"`
	EventTitle   string           `json:"eventTitle"`
	EventStarts  time.Time        `json:"eventStarts"`
	Location     string           `json:"location"`
	ContactName  string           `json:"contactName"`
	ContactEmail string           `json:"contactEmail"`
	Attendees    []model.Attendee `json:"attendees"`
	AmountCents  int64            `json:"amountCents"`
	Currency     string           `json:"currency"`
	PaymentID    string           `json:"paymentId,omitempty"`
	ConfirmedAt  time.Time        `json:"confirmedAt"`
}

// MemberCreated is published when an admin creates a member, so the auth
// provider account can be provisioned and the welcome email sent.
type MemberCreated struct {
	MemberID      string              `json:"memberId"`
	FirstName     string              `json:"firstName"`
	LastName      string              `json:"lastName"`
	Email         string              `json:"email"`
	BusinessName  string              `json:"businessName,omitempty"`
	Tier          string              `json:"tier"`
	Role          model.Role          `json:"role"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	Amount        decimal.Decimal     `json:"amount"`
	CreatedAt     time.Time           `json:"createdAt"`
}
