package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/basa-org/basa-events/internal/model"
)

// EventService is what EventHandler needs from the service layer.
type EventService interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, slug string) (*model.Event, error)
	Quote(ctx context.Context, slug string, tickets int, isMember bool) (*model.Quote, error)
	CreateEventPaymentIntent(ctx context.Context, req model.EventPaymentIntentRequest) (*model.EventPaymentIntentResponse, error)
	ConfirmEventPayment(ctx context.Context, paymentID string) (*model.ConfirmEventPaymentResponse, error)
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, req model.CreateEventRequest) (*model.Event, error)
	ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
	AddManualRegistration(ctx context.Context, eventID string, req model.ManualRegistrationRequest) (*model.ConfirmEventPaymentResponse, error)
}

// EventHandler holds the HTTP handlers for events and the ticket checkout.
type EventHandler struct {
	svc EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{slug}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, "failed to get event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Quote handles GET /events/{slug}/quote?tickets=3&member=true
func (h *EventHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tickets, err := strconv.Atoi(q.Get("tickets"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "tickets must be an integer")
		return
	}
	isMember := false
	if v := q.Get("member"); v != "" {
		if isMember, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "member must be true or false")
			return
		}
	}

	quote, err := h.svc.Quote(r.Context(), chi.URLParam(r, "slug"), tickets, isMember)
	if err != nil {
		writeServiceError(w, r, err, "failed to price tickets")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// CreatePaymentIntent handles POST /payments/events
// Prices the checkout server side and returns the client secret.
func (h *EventHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req model.EventPaymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.CreateEventPaymentIntent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create payment")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ConfirmPayment handles POST /payments/events/confirm
// Records the registrations for a succeeded payment.
func (h *EventHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmEventPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.ConfirmEventPayment(r.Context(), req.PaymentID)
	if err != nil {
		writeServiceError(w, r, err, "failed to confirm registration")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateEvent handles POST /admin/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create event")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /admin/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// ListRegistrations handles GET /admin/events/{id}/registrations
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list registrations")
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// AddRegistration handles POST /admin/events/{id}/registrations
// Books free registrations on behalf of attendees.
func (h *EventHandler) AddRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.ManualRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.AddManualRegistration(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err, "failed to add registration")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
