package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/basa-org/basa-events/internal/metrics"
	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/notify"
	"github.com/basa-org/basa-events/internal/payment"
	"github.com/basa-org/basa-events/internal/pricing"
	"github.com/basa-org/basa-events/internal/repository"
)

// MemberStore is the member persistence used by MembershipService.
type MemberStore interface {
	CreateWithPayment(ctx context.Context, m model.Member, p model.MemberPayment) (*model.Member, *model.MemberPayment, error)
	List(ctx context.Context) ([]model.Member, error)
}

// MembershipService backs the admin member+payment wizard.
type MembershipService struct {
	members   MemberStore
	payments  *payment.Initiator
	publisher notify.Publisher
}

// NewMembershipService constructs a MembershipService.
func NewMembershipService(members MemberStore, payments *payment.Initiator, publisher notify.Publisher) *MembershipService {
	return &MembershipService{members: members, payments: payments, publisher: publisher}
}

// Tiers returns the membership price table.
func (s *MembershipService) Tiers() []model.Tier {
	return model.Tiers
}

// ListMembers returns all members.
func (s *MembershipService) ListMembers(ctx context.Context) ([]model.Member, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// CreateAdminPaymentIntent creates the intent for a membership charged by
// credit card from the admin console.
func (s *MembershipService) CreateAdminPaymentIntent(ctx context.Context, req model.AdminPaymentIntentRequest) (*model.AdminPaymentIntentResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, invalid("email is required")
	}
	if !isValidEmail(email) {
		return nil, invalid("email is not a valid email address")
	}
	if !req.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}

	purchase := payment.AdminMembershipPurchase{
		Amount:   req.Amount,
		Email:    email,
		Tier:     req.Metadata[payment.MetaTier],
		Metadata: req.Metadata,
	}
	intent, err := s.payments.Initiate(ctx, purchase)
	if err != nil {
		metrics.PaymentIntent(metrics.FlowMembership, metrics.OutcomeFailed)
		slog.ErrorContext(ctx, "membership payment intent failed", "email", email, "amount", req.Amount.String(), "error", err)
		return nil, paymentSetupError(err)
	}
	metrics.PaymentIntent(metrics.FlowMembership, metrics.OutcomeCreated)

	return &model.AdminPaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// CreateMemberWithPayment records a member and how the membership was paid.
// Credit card payments for paid tiers must reference a succeeded intent for
// the tier amount.
func (s *MembershipService) CreateMemberWithPayment(ctx context.Context, req model.CreateMemberWithPaymentRequest) (*model.CreateMemberWithPaymentResponse, error) {
	md, err := validateMemberData(req.MemberData)
	if err != nil {
		return nil, err
	}
	tier, _ := model.LookupTier(md.Tier)

	pd := req.PaymentData
	if !pd.Method.Valid() {
		return nil, invalid("payment method must be one of credit_card, cash or check")
	}
	if !pd.Amount.Equal(tier.Price) {
		return nil, invalid("amount %s does not match the %s price of %s",
			pd.Amount.StringFixed(2), tier.Name, tier.Price.StringFixed(2))
	}

	var intentID string
	if pd.Method == model.PaymentCreditCard && !tier.IsFree() {
		intentID, err = s.verifyMembershipPayment(ctx, pd, md.Email, tier.Price)
		if err != nil {
			return nil, err
		}
	}

	member, paid, err := s.members.CreateWithPayment(ctx, model.Member{
		FirstName:    md.FirstName,
		LastName:     md.LastName,
		Email:        md.Email,
		Phone:        md.Phone,
		BusinessName: md.BusinessName,
		Tier:         tier.ID,
		Role:         md.Role,
	}, model.MemberPayment{
		Method:          pd.Method,
		Amount:          tier.Price,
		PaymentIntentID: intentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMemberExists):
			return nil, repository.ErrMemberExists
		case errors.Is(err, repository.ErrPaymentAlreadyUsed):
			return nil, repository.ErrPaymentAlreadyUsed
		}
		return nil, fmt.Errorf("create member: %w", err)
	}

	metrics.MemberCreated(string(paid.Method))
	ev := notify.MemberCreated{
		MemberID:      member.ID,
		FirstName:     member.FirstName,
		LastName:      member.LastName,
		Email:         member.Email,
		BusinessName:  member.BusinessName,
		Tier:          member.Tier,
		Role:          member.Role,
		PaymentMethod: paid.Method,
		Amount:        paid.Amount,
		CreatedAt:     member.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, notify.QueueMemberCreated, ev); err != nil {
		slog.WarnContext(ctx, "member creation not published", "member_id", member.ID, "error", err)
	}

	return &model.CreateMemberWithPaymentResponse{Success: true, Member: member, Payment: paid}, nil
}

// verifyMembershipPayment returns the id of the succeeded intent referenced
// by pd. The intent must have been created for email.
func (s *MembershipService) verifyMembershipPayment(ctx context.Context, pd model.PaymentData, email string, price decimal.Decimal) (string, error) {
	id := strings.TrimSpace(pd.PaymentIntentID)
	if id == "" && pd.ClientSecret != "" {
		var err error
		if id, err = payment.IntentIDFromClientSecret(pd.ClientSecret); err != nil {
			return "", invalid("client secret is malformed")
		}
	}
	if id == "" {
		return "", invalid("a payment intent is required for credit card payments")
	}

	intent, err := s.payments.Get(ctx, id)
	if err != nil {
		return "", paymentSetupError(err)
	}
	if intent.Metadata[payment.MetaType] != payment.TypeAdminMembership {
		return "", invalid("payment %s is not a membership payment", id)
	}
	if normalizeEmail(intent.Metadata[payment.MetaEmail]) != email {
		return "", invalid("payment %s was not made for %s", id, email)
	}
	if !intent.Succeeded() {
		return "", fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, intent.Status)
	}
	if intent.AmountCents != pricing.ToMinorUnits(price) {
		return "", invalid("payment amount does not match the tier price")
	}
	return intent.ID, nil
}

func validateMemberData(md model.MemberData) (model.MemberData, error) {
	md.FirstName = strings.TrimSpace(md.FirstName)
	md.LastName = strings.TrimSpace(md.LastName)
	md.Email = normalizeEmail(md.Email)
	md.Phone = strings.TrimSpace(md.Phone)
	md.BusinessName = strings.TrimSpace(md.BusinessName)
	md.Tier = strings.TrimSpace(md.Tier)

	switch {
	case md.FirstName == "":
		return md, invalid("first name is required")
	case md.LastName == "":
		return md, invalid("last name is required")
	case md.Email == "":
		return md, invalid("email is required")
	case !isValidEmail(md.Email):
		return md, invalid("email is not a valid email address")
	}
	if _, ok := model.LookupTier(md.Tier); !ok {
		return md, invalid("unknown membership tier %q", md.Tier)
	}
	if md.Role == "" {
		md.Role = model.RoleMember
	}
	if !md.Role.Valid() {
		return md, invalid("unknown role %q", md.Role)
	}
	return md, nil
}
