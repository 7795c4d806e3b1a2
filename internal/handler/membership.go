package handler

import (
	"context"
	"net/http"

	"github.com/basa-org/basa-events/internal/model"
)

// MembershipService is what MembershipHandler needs from the service layer.
type MembershipService interface {
	Tiers() []model.Tier
	ListMembers(ctx context.Context) ([]model.Member, error)
	CreateAdminPaymentIntent(ctx context.Context, req model.AdminPaymentIntentRequest) (*model.AdminPaymentIntentResponse, error)
	CreateMemberWithPayment(ctx context.Context, req model.CreateMemberWithPaymentRequest) (*model.CreateMemberWithPaymentResponse, error)
}

// MembershipHandler serves the admin member+payment endpoints.
type MembershipHandler struct {
	svc MembershipService
}

// NewMembershipHandler constructs a MembershipHandler.
func NewMembershipHandler(svc MembershipService) *MembershipHandler {
	return &MembershipHandler{svc: svc}
}

// Tiers handles GET /tiers
func (h *MembershipHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Tiers())
}

// ListMembers handles GET /admin/members
func (h *MembershipHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// CreatePaymentIntent handles POST /admin/create-payment-intent
func (h *MembershipHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req model.AdminPaymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.CreateAdminPaymentIntent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create payment")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateMemberWithPayment handles POST /admin/create-member-with-payment
func (h *MembershipHandler) CreateMemberWithPayment(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMemberWithPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.CreateMemberWithPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create member")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
