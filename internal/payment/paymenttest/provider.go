// Package paymenttest provides an in-memory payment.Provider for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/basa-org/basa-events/internal/payment"
)

// Provider records every call and keeps created intents in memory. Set Err
// to make the next calls fail, or ConfirmStatus to control the outcome of
// ConfirmPayment (default succeeded).
type Provider struct {
	mu sync.Mutex

	Err           error
	ConfirmErr    error
	ConfirmStatus string

	Created   []payment.IntentRequest
	Confirmed []string
	intents   map[string]*payment.Intent
	seq       int
}

// New returns an empty Provider.
func New() *Provider {
	return &Provider{intents: map[string]*payment.Intent{}}
}

// CreateIntent stores a new intent in requires_payment_method.
func (p *Provider) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Created = append(p.Created, req)
	if p.Err != nil {
		return nil, p.Err
	}
	p.seq++
	id := fmt.Sprintf("pi_test_%d", p.seq)
	intent := &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_test",
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		Status:       payment.StatusRequiresPaymentMethod,
		Metadata:     req.Metadata,
	}
	p.intents[id] = intent
	cp := *intent
	return &cp, nil
}

// GetIntent returns a stored intent.
func (p *Provider) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	intent, ok := p.intents[id]
	if !ok {
		return nil, &payment.ProviderError{Code: "resource_missing", Message: "No such payment_intent: '" + id + "'"}
	}
	cp := *intent
	return &cp, nil
}

// ConfirmPayment moves the intent to ConfirmStatus.
func (p *Provider) ConfirmPayment(_ context.Context, clientSecret, paymentMethodID string) (*payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Confirmed = append(p.Confirmed, paymentMethodID)
	if p.ConfirmErr != nil {
		return nil, p.ConfirmErr
	}
	id, err := payment.IntentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}
	intent, ok := p.intents[id]
	if !ok {
		return nil, &payment.ProviderError{Code: "resource_missing", Message: "No such payment_intent: '" + id + "'"}
	}
	intent.Status = payment.StatusSucceeded
	if p.ConfirmStatus != "" {
		intent.Status = p.ConfirmStatus
	}
	cp := *intent
	return &cp, nil
}

// Put stores or replaces an intent, e.g. to simulate a webhook update.
func (p *Provider) Put(intent payment.Intent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[intent.ID] = &intent
}

// SetStatus changes the status of a stored intent.
func (p *Provider) SetStatus(id, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if intent, ok := p.intents[id]; ok {
		intent.Status = status
	}
}

// CreateCount reports how many intents were requested.
func (p *Provider) CreateCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Created)
}
