// Package payment wraps the external payment processor. Both the event
// checkout and the admin membership flow create their intents through
// Initiator, so amount and metadata rules live in one place.
package payment

import (
	"context"
	"errors"
	"strings"
)

// Intent statuses reported by the processor that this service acts on.
const (
	StatusSucceeded             = "succeeded"
	StatusProcessing            = "processing"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresAction        = "requires_action"
	StatusCanceled              = "canceled"
)

// Metadata keys attached to every intent.
const (
	MetaType         = "type"
	MetaEventID      = "eventId"
	MetaTicketCount  = "ticketCount"
	MetaIsMember     = "isMember"
	MetaAttendees    = "attendees"
	MetaPrimaryName  = "primaryName"
	MetaPrimaryEmail = "primaryEmail"
	MetaTier         = "tier"
	MetaEmail        = "email"

	TypeEventRegistration = "event_registration"
	TypeAdminMembership   = "admin_membership"
)

var (
	// ErrInvalidAmount is returned for zero or negative charges.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrInvalidClientSecret is returned when a client secret cannot be
	// mapped back to its intent.
	ErrInvalidClientSecret = errors.New("invalid client secret")
)

// Intent is the processor's pending charge as seen by this service.
type Intent struct {
	ID           string
	ClientSecret string
	AmountCents  int64
	Currency     string
	Status       string
	Metadata     map[string]string
	// LastError is the processor's message for the most recent failed attempt.
	LastError string
}

// Succeeded reports whether the charge completed.
func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// IntentRequest asks the processor for a new intent.
type IntentRequest struct {
	AmountCents  int64
	Currency     string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// Provider is the payment processor.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID string) (*Intent, error)
}

// ProviderError carries the processor's own message, which is shown to the
// user verbatim.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// ProviderMessage returns the processor message inside err, if any.
func ProviderMessage(err error) (string, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message, true
	}
	return "", false
}

// IntentIDFromClientSecret extracts the intent id from a client secret of
// the form "<id>_secret_<nonce>".
func IntentIDFromClientSecret(secret string) (string, error) {
	id, _, ok := strings.Cut(secret, "_secret_")
	if !ok || id == "" {
		return "", ErrInvalidClientSecret
	}
	return id, nil
}
