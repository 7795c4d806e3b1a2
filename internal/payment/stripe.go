package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// StripeProvider implements Provider on Stripe PaymentIntents.
type StripeProvider struct {
	intents *paymentintent.Client
}

// NewStripeProvider constructs a StripeProvider authenticated with secretKey.
func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{
		intents: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
}

// CreateIntent creates a PaymentIntent with automatic payment methods.
func (s *StripeProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, stripeError(err)
	}
	return fromStripe(pi), nil
}

// GetIntent retrieves a PaymentIntent by id.
func (s *StripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.intents.Get(id, params)
	if err != nil {
		return nil, stripeError(err)
	}
	return fromStripe(pi), nil
}

// ConfirmPayment confirms the intent behind clientSecret with a payment
// method collected by the card element.
func (s *StripeProvider) ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID string) (*Intent, error) {
	id, err := IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	pi, err := s.intents.Confirm(id, params)
	if err != nil {
		return nil, stripeError(err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		intent.LastError = pi.LastPaymentError.Msg
	}
	return intent
}

func stripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return &ProviderError{Code: string(se.Code), Message: se.Msg}
	}
	return fmt.Errorf("stripe: %w", err)
}
