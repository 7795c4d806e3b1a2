package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the access level of a member account.
type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// PaymentMethod is how an admin-created membership was paid.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentCash       PaymentMethod = "cash"
	PaymentCheck      PaymentMethod = "check"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentCash, PaymentCheck:
		return true
	}
	return false
}

// Tier is a fixed membership level with its annual price.
type Tier struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// IsFree reports whether the tier costs nothing.
func (t Tier) IsFree() bool {
	return t.Price.IsZero()
}

// Tiers is the membership price table offered by the admin console.
var Tiers = []Tier{
	{ID: "nag-resource", Name: "NAG Resource Member", Price: decimal.Zero},
	{ID: "individual", Name: "Individual Member", Price: decimal.NewFromInt(150)},
	{ID: "small-business", Name: "Small Business Member", Price: decimal.NewFromInt(350)},
	{ID: "corporate", Name: "Corporate Member", Price: decimal.NewFromInt(750)},
	{ID: "corporate-partner", Name: "Corporate Partner", Price: decimal.NewFromInt(2500)},
}

// LookupTier returns the tier with the given id.
func LookupTier(id string) (Tier, bool) {
	for _, t := range Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Member is a BASA member account record.
type Member struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	BusinessName string    `json:"businessName,omitempty"`
	Tier         string    `json:"tier"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MemberPayment records how a membership was paid. PaymentIntentID is only
// set for credit card payments.
type MemberPayment struct {
	ID              string          `json:"id"`
	MemberID        string          `json:"memberId"`
	Method          PaymentMethod   `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// MemberData carries the identity fields collected by the admin wizard.
type MemberData struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	Tier         string `json:"tier"`
	Role         Role   `json:"role,omitempty"`
}

// PaymentData carries how the membership was (or will be) paid.
type PaymentData struct {
	Method          PaymentMethod   `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	ClientSecret    string          `json:"clientSecret,omitempty"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
}

// CreateMemberWithPaymentRequest is the body of POST /admin/create-member-with-payment.
type CreateMemberWithPaymentRequest struct {
	MemberData  MemberData  `json:"memberData"`
	PaymentData PaymentData `json:"paymentData"`
}

// CreateMemberWithPaymentResponse reports the created member.
type CreateMemberWithPaymentResponse struct {
	Success bool           `json:"success"`
	Member  *Member        `json:"member,omitempty"`
	Payment *MemberPayment `json:"payment,omitempty"`
}

// AdminPaymentIntentRequest is the body of POST /admin/create-payment-intent.
// Amount is in major currency units.
type AdminPaymentIntentRequest struct {
	Amount   decimal.Decimal   `json:"amount"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AdminPaymentIntentResponse carries the client secret for the membership charge.
type AdminPaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}
