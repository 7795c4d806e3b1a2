package registration

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/basa-org/basa-events/internal/payment"
)

// State of a Confirmation.
type State int

const (
	Idle State = iota
	Processing
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Processing:
		return "processing"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ErrPaymentInProgress is returned by Pay while a payment is processing.
var ErrPaymentInProgress = errors.New("payment is already processing")

// Confirmer completes a card payment against a client secret.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID string) (*payment.Intent, error)
}

// Confirmation is the card payment step of a checkout.
type Confirmation struct {
	checkout  Checkout
	confirmer Confirmer

	mu       sync.Mutex
	state    State
	err      error
	redirect string
}

// NewConfirmation starts the payment step for c.
func NewConfirmation(c Checkout, confirmer Confirmer) *Confirmation {
	return &Confirmation{checkout: c, confirmer: confirmer}
}

// State is the current state.
func (c *Confirmation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the processor error of the last failed attempt.
func (c *Confirmation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Redirect is the confirmation page URL once the payment succeeded.
func (c *Confirmation) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// Pay confirms the payment with paymentMethodID and returns the redirect
// URL. A failed attempt may be retried by calling Pay again.
func (c *Confirmation) Pay(ctx context.Context, paymentMethodID string) (string, error) {
	c.mu.Lock()
	switch c.state {
	case Processing:
		c.mu.Unlock()
		return "", ErrPaymentInProgress
	case Succeeded:
		redirect := c.redirect
		c.mu.Unlock()
		return redirect, nil
	}
	c.state = Processing
	c.err = nil
	c.mu.Unlock()

	intent, err := c.confirmer.ConfirmPayment(ctx, c.checkout.ClientSecret, paymentMethodID)
	if err == nil && !intent.Succeeded() {
		err = declined(intent)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Failed
		c.err = err
		return "", err
	}
	c.state = Succeeded
	c.redirect = ConfirmationURL(c.checkout.EventID, c.checkout.TicketCount, intent.ID)
	return c.redirect, nil
}

func declined(intent *payment.Intent) error {
	if intent.LastError != "" {
		return &payment.ProviderError{Message: intent.LastError}
	}
	return fmt.Errorf("payment %s", intent.Status)
}

// ConfirmationURL is the page shown after a successful event payment.
func ConfirmationURL(eventID string, tickets int, paymentID string) string {
	return "/confirmation?type=event" +
		"&eventId=" + url.QueryEscape(eventID) +
		"&tickets=" + strconv.Itoa(tickets) +
		"&paymentId=" + url.QueryEscape(paymentID)
}
