// Package pricing computes ticket quotes. The same functions back the server
// endpoints and the client-side form so the charged amount and the displayed
// amount cannot drift apart.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/basa-org/basa-events/internal/model"
)

const (
	// GroupDiscountThreshold is the ticket count from which the group discount applies.
	GroupDiscountThreshold = 3
	// GroupDiscountPercentage is the group discount, in percent.
	GroupDiscountPercentage = 15
)

var hundred = decimal.NewFromInt(100)

// Calculate prices ticketCount tickets. isMember selects memberPrice over
// price. The discount is rounded to the minor currency unit. No bounds
// checking is done on ticketCount.
func Calculate(price, memberPrice decimal.Decimal, ticketCount int, isMember bool) model.Quote {
	unit := price
	if isMember {
		unit = memberPrice
	}

	gross := unit.Mul(decimal.NewFromInt(int64(ticketCount)))

	discount := decimal.Zero
	pct := 0
	if ticketCount >= GroupDiscountThreshold {
		pct = GroupDiscountPercentage
		discount = gross.Mul(decimal.NewFromInt(int64(pct))).Div(hundred).Round(2)
	}

	return model.Quote{
		TicketCount:        ticketCount,
		PricePerTicket:     unit,
		GrossTotal:         gross,
		Discount:           discount,
		DiscountPercentage: pct,
		TotalPrice:         gross.Sub(discount),
	}
}

// ForEvent is Calculate with the event's two prices.
func ForEvent(e *model.Event, ticketCount int, isMember bool) model.Quote {
	return Calculate(e.Price, e.MemberPrice, ticketCount, isMember)
}

// ToMinorUnits converts a major-unit amount to integer cents, rounding half
// away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits converts cents back to a major-unit amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
