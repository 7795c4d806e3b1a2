package payment_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/payment"
	"github.com/basa-org/basa-events/internal/payment/paymenttest"
	"github.com/basa-org/basa-events/internal/pricing"
)

func TestInitiate_EventTicketPurchase(t *testing.T) {
	provider := paymenttest.New()
	initiator := payment.NewInitiator(provider, "usd")

	quote := pricing.Calculate(decimal.NewFromInt(75), decimal.NewFromInt(50), 3, true)
	intent, err := initiator.Initiate(context.Background(), payment.EventTicketPurchase{
		EventID:    "evt-1",
		EventTitle: "Annual Gala",
		Quote:      quote,
		IsMember:   true,
		Primary:    model.Attendee{Name: "Ana Ruiz", Email: "ana@example.com"},
		Names:      []string{"Ana Ruiz", "Ben Ortiz", "Cy Park"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(12750), intent.AmountCents)
	require.Len(t, provider.Created, 1)
	req := provider.Created[0]
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "ana@example.com", req.ReceiptEmail)
	assert.Equal(t, map[string]string{
		payment.MetaType:         payment.TypeEventRegistration,
		payment.MetaEventID:      "evt-1",
		payment.MetaTicketCount:  "3",
		payment.MetaIsMember:     "true",
		payment.MetaPrimaryName:  "Ana Ruiz",
		payment.MetaPrimaryEmail: "ana@example.com",
		payment.MetaAttendees:    `["Ana Ruiz","Ben Ortiz","Cy Park"]`,
	}, req.Metadata)
}

func TestInitiate_AdminMembershipPurchase(t *testing.T) {
	provider := paymenttest.New()
	initiator := payment.NewInitiator(provider, "usd")

	_, err := initiator.Initiate(context.Background(), payment.AdminMembershipPurchase{
		Amount: decimal.NewFromInt(350),
		Email:  "owner@shop.example",
		Tier:   "small-business",
		Metadata: map[string]string{
			"createdBy":      "admin-7",
			payment.MetaType: "spoofed",
		},
	})
	require.NoError(t, err)

	req := provider.Created[0]
	assert.Equal(t, int64(35000), req.AmountCents)
	assert.Equal(t, payment.TypeAdminMembership, req.Metadata[payment.MetaType])
	assert.Equal(t, "small-business", req.Metadata[payment.MetaTier])
	assert.Equal(t, "owner@shop.example", req.Metadata[payment.MetaEmail])
	assert.Equal(t, "admin-7", req.Metadata["createdBy"])
}

func TestInitiate_RejectsNonPositiveAmount(t *testing.T) {
	provider := paymenttest.New()
	initiator := payment.NewInitiator(provider, "usd")

	_, err := initiator.Initiate(context.Background(), payment.AdminMembershipPurchase{Amount: decimal.Zero, Email: "a@b.co"})

	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
	assert.Zero(t, provider.CreateCount())
}

func TestInitiate_ProviderErrorKeepsMessage(t *testing.T) {
	provider := paymenttest.New()
	provider.Err = &payment.ProviderError{Code: "amount_too_small", Message: "Amount must be at least $0.50 usd"}
	initiator := payment.NewInitiator(provider, "usd")

	_, err := initiator.Initiate(context.Background(), payment.AdminMembershipPurchase{Amount: decimal.NewFromInt(1), Email: "a@b.co"})
	require.Error(t, err)

	msg, ok := payment.ProviderMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Amount must be at least $0.50 usd", msg)

	_, ok = payment.ProviderMessage(fmt.Errorf("wrapped: %w", errors.New("network down")))
	assert.False(t, ok)
}

func TestEventTicketPurchase_TruncatesLongAttendeeList(t *testing.T) {
	provider := paymenttest.New()
	initiator := payment.NewInitiator(provider, "usd")

	names := make([]string, 100)
	for i := range names {
		names[i] = fmt.Sprintf("Attendee Number %03d", i)
	}
	quote := pricing.Calculate(decimal.NewFromInt(10), decimal.NewFromInt(5), len(names), false)

	_, err := initiator.Initiate(context.Background(), payment.EventTicketPurchase{
		EventID: "evt-2", Quote: quote, Primary: model.Attendee{Name: "A", Email: "a@b.co"}, Names: names,
	})
	require.NoError(t, err)

	got := provider.Created[0].Metadata[payment.MetaAttendees]
	assert.LessOrEqual(t, len(got), 500)
	assert.True(t, strings.HasPrefix(got, `["Attendee Number 000",`))

	decoded := payment.DecodeNames(got)
	require.NotEmpty(t, decoded)
	assert.Less(t, len(decoded), len(names))
	assert.Equal(t, names[:len(decoded)], decoded)
}

func TestAttendeeNamesKeepCommas(t *testing.T) {
	provider := paymenttest.New()
	initiator := payment.NewInitiator(provider, "usd")

	names := []string{"Doe, Jane", "Smith, John", "Cy Park"}
	quote := pricing.Calculate(decimal.NewFromInt(10), decimal.NewFromInt(5), len(names), false)
	_, err := initiator.Initiate(context.Background(), payment.EventTicketPurchase{
		EventID: "evt-3", Quote: quote, Primary: model.Attendee{Name: "Doe, Jane", Email: "jane@example.com"}, Names: names,
	})
	require.NoError(t, err)

	assert.Equal(t, names, payment.DecodeNames(provider.Created[0].Metadata[payment.MetaAttendees]))
}

func TestDecodeNames_Malformed(t *testing.T) {
	assert.Nil(t, payment.DecodeNames(""))
	assert.Nil(t, payment.DecodeNames("Ana Ruiz, Ben Ortiz"))
}

func TestIntentIDFromClientSecret(t *testing.T) {
	id, err := payment.IntentIDFromClientSecret("pi_3Nabc_secret_xyz")
	require.NoError(t, err)
	assert.Equal(t, "pi_3Nabc", id)

	for _, bad := range []string{"", "pi_3Nabc", "_secret_xyz"} {
		_, err := payment.IntentIDFromClientSecret(bad)
		assert.ErrorIs(t, err, payment.ErrInvalidClientSecret, bad)
	}
}
