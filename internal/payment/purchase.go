package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/pricing"
)

// maxMetadataValue is the processor's limit on a single metadata value.
const maxMetadataValue = 500

// Purchase is something that can be charged for: EventTicketPurchase or
// AdminMembershipPurchase.
type Purchase interface {
	intentRequest(currency string) IntentRequest
}

// EventTicketPurchase charges for tickets to an event.
type EventTicketPurchase struct {
	EventID    string
	EventTitle string
	Quote      model.Quote
	IsMember   bool
	Primary    model.Attendee
	Names      []string
}

func (p EventTicketPurchase) intentRequest(currency string) IntentRequest {
	return IntentRequest{
		AmountCents:  pricing.ToMinorUnits(p.Quote.TotalPrice),
		Currency:     currency,
		ReceiptEmail: p.Primary.Email,
		Description:  fmt.Sprintf("%d ticket(s): %s", p.Quote.TicketCount, p.EventTitle),
		Metadata: map[string]string{
			MetaType:         TypeEventRegistration,
			MetaEventID:      p.EventID,
			MetaTicketCount:  strconv.Itoa(p.Quote.TicketCount),
			MetaIsMember:     strconv.FormatBool(p.IsMember),
			MetaPrimaryName:  truncate(p.Primary.Name),
			MetaPrimaryEmail: truncate(p.Primary.Email),
			MetaAttendees:    encodeNames(p.Names),
		},
	}
}

// AdminMembershipPurchase charges for a membership created from the admin
// console. Amount is in major currency units.
type AdminMembershipPurchase struct {
	Amount   decimal.Decimal
	Email    string
	Tier     string
	Metadata map[string]string
}

func (p AdminMembershipPurchase) intentRequest(currency string) IntentRequest {
	md := make(map[string]string, len(p.Metadata)+3)
	maps.Copy(md, p.Metadata)
	md[MetaType] = TypeAdminMembership
	md[MetaEmail] = p.Email
	if p.Tier != "" {
		md[MetaTier] = p.Tier
	}
	return IntentRequest{
		AmountCents:  pricing.ToMinorUnits(p.Amount),
		Currency:     currency,
		ReceiptEmail: p.Email,
		Description:  "BASA membership",
		Metadata:     md,
	}
}

// Initiator creates intents for purchases.
type Initiator struct {
	provider Provider
	currency string
}

// NewInitiator constructs an Initiator charging in currency.
func NewInitiator(provider Provider, currency string) *Initiator {
	return &Initiator{provider: provider, currency: currency}
}

// Currency is the ISO currency code intents are created in.
func (i *Initiator) Currency() string {
	return i.currency
}

// Initiate creates the intent for p.
func (i *Initiator) Initiate(ctx context.Context, p Purchase) (*Intent, error) {
	req := p.intentRequest(i.currency)
	if req.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	intent, err := i.provider.CreateIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return intent, nil
}

// Get fetches the current state of an intent.
func (i *Initiator) Get(ctx context.Context, id string) (*Intent, error) {
	intent, err := i.provider.GetIntent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment intent: %w", err)
	}
	return intent, nil
}

func truncate(s string) string {
	if len(s) <= maxMetadataValue {
		return s
	}
	return strings.ToValidUTF8(s[:maxMetadataValue], "")
}

// encodeNames stores names as a JSON array, dropping trailing names until it
// fits in one metadata value.
func encodeNames(names []string) string {
	for n := len(names); n > 0; n-- {
		buf, err := json.Marshal(names[:n])
		if err == nil && len(buf) <= maxMetadataValue {
			return string(buf)
		}
	}
	return "[]"
}

// DecodeNames reads the attendee names stored on an event intent.
func DecodeNames(s string) []string {
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}
