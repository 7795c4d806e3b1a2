// Package wizard implements the admin console flow that creates a member
// together with the payment for their membership.
//
// The steps are MemberInfo, Payment (only for card payments of paid tiers),
// Processing and Success. Every transition method returns the state the
// wizard ended in; a failure anywhere returns it to MemberInfo with the
// error available from Err.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/payment"
)

// State is a wizard step.
type State int

const (
	MemberInfo State = iota
	Payment
	Processing
	Success
)

func (s State) String() string {
	switch s {
	case MemberInfo:
		return "member-info"
	case Payment:
		return "payment"
	case Processing:
		return "processing"
	case Success:
		return "success"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DefaultCloseDelay is how long the success step stays up.
const DefaultCloseDelay = 2 * time.Second

var (
	// ErrIllegalTransition is returned when a step is not reachable from the
	// current state.
	ErrIllegalTransition = errors.New("illegal wizard transition")
	// ErrInvalidMemberInfo wraps client-side validation failures.
	ErrInvalidMemberInfo = errors.New("invalid member information")
	// ErrAlreadyCharged is returned when the member info is changed after
	// the card was charged. Only the tier, email and method that were paid
	// for can be resubmitted.
	ErrAlreadyCharged = errors.New("card already charged for this membership")
)

// AdminAPI is the server side of the wizard.
type AdminAPI interface {
	CreateAdminPaymentIntent(ctx context.Context, req model.AdminPaymentIntentRequest) (*model.AdminPaymentIntentResponse, error)
	CreateMemberWithPayment(ctx context.Context, req model.CreateMemberWithPaymentRequest) (*model.CreateMemberWithPaymentResponse, error)
}

// Confirmer completes a card payment against a client secret.
type Confirmer interface {
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethodID string) (*payment.Intent, error)
}

// Info is what the member-info step collects.
type Info struct {
	Member model.MemberData
	Method model.PaymentMethod
}

// Options configure a Wizard.
type Options struct {
	// CloseDelay defaults to DefaultCloseDelay.
	CloseDelay time.Duration
	// OnClose is called with the created member once the success step
	// closes.
	OnClose func(*model.Member)
}

// Wizard is one run of the admin member+payment flow. It is safe for
// concurrent use; a transition started while another is running fails with
// ErrIllegalTransition.
type Wizard struct {
	api       AdminAPI
	confirmer Confirmer
	opts      Options

	mu     sync.Mutex
	state  State
	busy   bool
	err    error
	info   Info
	tier   model.Tier
	intent *model.AdminPaymentIntentResponse
	paid   bool
	member *model.Member
	timer  *time.Timer
}

// New starts a wizard at MemberInfo.
func New(api AdminAPI, confirmer Confirmer, opts Options) *Wizard {
	if opts.CloseDelay <= 0 {
		opts.CloseDelay = DefaultCloseDelay
	}
	return &Wizard{api: api, confirmer: confirmer, opts: opts}
}

// State is the current step.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err is the error that last sent the wizard back to MemberInfo.
func (w *Wizard) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Tier is the tier selected in the member-info step.
func (w *Wizard) Tier() model.Tier {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tier
}

// ClientSecret is the secret for the card payment step, if any.
func (w *Wizard) ClientSecret() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.intent == nil {
		return ""
	}
	return w.intent.ClientSecret
}

// Member is the created member once the wizard reached Success.
func (w *Wizard) Member() *model.Member {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.member
}

// begin claims the wizard for a transition out of from.
func (w *Wizard) begin(from State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy || w.state != from {
		return fmt.Errorf("%w: %s", ErrIllegalTransition, w.state)
	}
	w.busy = true
	return nil
}

// fail returns the wizard to MemberInfo with err.
func (w *Wizard) fail(err error) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = MemberInfo
	w.busy = false
	w.err = err
	return w.state, err
}

func (w *Wizard) settle(s State) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
	w.busy = false
	w.err = nil
	return s
}

// SubmitMemberInfo validates info and moves on. Card payments for paid
// tiers create a payment intent and stop at Payment; everything else is
// recorded straight away and ends at Success.
func (w *Wizard) SubmitMemberInfo(ctx context.Context, info Info) (State, error) {
	if err := w.begin(MemberInfo); err != nil {
		return w.State(), err
	}

	tier, err := validate(&info)
	if err != nil {
		return w.fail(err)
	}

	w.mu.Lock()
	reuse := w.intent != nil && w.tier.ID == tier.ID && w.info.Member.Email == info.Member.Email
	if w.paid && (!reuse || info.Method != model.PaymentCreditCard) {
		err := fmt.Errorf("%w: keep the %s tier, %s and credit card", ErrAlreadyCharged, w.tier.Name, w.info.Member.Email)
		w.mu.Unlock()
		return w.fail(err)
	}
	paid, intent := reuse && w.paid, w.intent
	w.info, w.tier = info, tier
	w.mu.Unlock()

	if info.Method != model.PaymentCreditCard || tier.IsFree() {
		return w.createMember(ctx, model.PaymentData{Method: info.Method, Amount: tier.Price})
	}
	// The card was already charged; only the member record is missing.
	if paid {
		return w.createMember(ctx, cardPayment(tier, intent))
	}

	if !reuse {
		created, err := w.api.CreateAdminPaymentIntent(ctx, model.AdminPaymentIntentRequest{
			Amount:   tier.Price,
			Email:    info.Member.Email,
			Metadata: map[string]string{payment.MetaTier: tier.ID, "tierName": tier.Name},
		})
		if err != nil {
			return w.fail(err)
		}
		w.mu.Lock()
		w.intent, w.paid = created, false
		w.mu.Unlock()
	}
	return w.settle(Payment), nil
}

// Back returns from Payment to MemberInfo.
func (w *Wizard) Back() (State, error) {
	if err := w.begin(Payment); err != nil {
		return w.State(), err
	}
	return w.settle(MemberInfo), nil
}

// Pay confirms the card payment and creates the member.
func (w *Wizard) Pay(ctx context.Context, paymentMethodID string) (State, error) {
	if err := w.begin(Payment); err != nil {
		return w.State(), err
	}

	w.mu.Lock()
	intent, tier := w.intent, w.tier
	w.mu.Unlock()

	confirmed, err := w.confirmer.ConfirmPayment(ctx, intent.ClientSecret, paymentMethodID)
	if err == nil && !confirmed.Succeeded() {
		err = fmt.Errorf("payment %s", confirmed.Status)
		if confirmed.LastError != "" {
			err = &payment.ProviderError{Message: confirmed.LastError}
		}
	}
	if err != nil {
		return w.fail(err)
	}
	w.mu.Lock()
	w.paid = true
	w.mu.Unlock()

	return w.createMember(ctx, cardPayment(tier, intent))
}

func cardPayment(tier model.Tier, intent *model.AdminPaymentIntentResponse) model.PaymentData {
	return model.PaymentData{
		Method:          model.PaymentCreditCard,
		Amount:          tier.Price,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.PaymentIntentID,
	}
}

// createMember runs the Processing step. The caller holds the busy flag.
func (w *Wizard) createMember(ctx context.Context, pd model.PaymentData) (State, error) {
	w.mu.Lock()
	w.state = Processing
	info := w.info
	w.mu.Unlock()

	resp, err := w.api.CreateMemberWithPayment(ctx, model.CreateMemberWithPaymentRequest{
		MemberData:  info.Member,
		PaymentData: pd,
	})
	if err == nil && (resp == nil || !resp.Success) {
		err = errors.New("member was not created")
	}
	if err != nil {
		return w.fail(err)
	}

	w.mu.Lock()
	w.member = resp.Member
	w.intent, w.paid = nil, false
	w.timer = time.AfterFunc(w.opts.CloseDelay, w.close)
	w.mu.Unlock()
	return w.settle(Success), nil
}

func (w *Wizard) close() {
	w.mu.Lock()
	member, onClose := w.member, w.opts.OnClose
	w.mu.Unlock()
	if onClose != nil {
		onClose(member)
	}
}

// Stop cancels a pending close callback. It reports whether the callback
// was cancelled before running.
func (w *Wizard) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		return false
	}
	return w.timer.Stop()
}

func validate(info *Info) (model.Tier, error) {
	m := &info.Member
	m.FirstName = strings.TrimSpace(m.FirstName)
	m.LastName = strings.TrimSpace(m.LastName)
	m.Email = strings.TrimSpace(m.Email)

	switch {
	case m.FirstName == "":
		return model.Tier{}, fmt.Errorf("%w: first name is required", ErrInvalidMemberInfo)
	case m.LastName == "":
		return model.Tier{}, fmt.Errorf("%w: last name is required", ErrInvalidMemberInfo)
	case m.Email == "":
		return model.Tier{}, fmt.Errorf("%w: email is required", ErrInvalidMemberInfo)
	}
	tier, ok := model.LookupTier(m.Tier)
	if !ok {
		return model.Tier{}, fmt.Errorf("%w: select a membership tier", ErrInvalidMemberInfo)
	}
	if !info.Method.Valid() {
		return model.Tier{}, fmt.Errorf("%w: select a payment method", ErrInvalidMemberInfo)
	}
	return tier, nil
}
