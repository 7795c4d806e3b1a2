package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basa-org/basa-events/internal/model"
	"github.com/basa-org/basa-events/internal/registration"
	"github.com/basa-org/basa-events/internal/wizard"
)

var (
	_ registration.PaymentAPI = (*Client)(nil)
	_ wizard.AdminAPI         = (*Client)(nil)
)

func TestCreateEventPaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req model.EventPaymentIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.TicketCount)
		assert.Len(t, req.AttendeeInfo, 3)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"clientSecret":"pi_1_secret_x","paymentIntentId":"pi_1","amountCents":12750,"currency":"usd",
			"quote":{"ticketCount":3,"pricePerTicket":"50","grossTotal":"150","discount":"22.5","discountPercentage":15,"totalPrice":"127.5"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.CreateEventPaymentIntent(context.Background(), model.EventPaymentIntentRequest{
		EventID:      "evt-1",
		TicketCount:  3,
		AttendeeInfo: make([]model.Attendee, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12750), resp.AmountCents)
	assert.True(t, resp.Quote.TotalPrice.Equal(decimal.RequireFromString("127.50")))
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"not enough spots remaining: requested 2, only 1 available"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateEventPaymentIntent(context.Background(), model.EventPaymentIntentRequest{})
	require.Error(t, err)
	assert.Equal(t, "not enough spots remaining: requested 2, only 1 available", err.Error())
	assert.Equal(t, http.StatusConflict, StatusOf(err))
}

func TestErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Tiers(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Bad Gateway", err.Error())
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestAdminCallsSendToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/admin/create-payment-intent":
			_, _ = w.Write([]byte(`{"clientSecret":"pi_2_secret_y","paymentIntentId":"pi_2"}`))
		case "/admin/create-member-with-payment":
			var req model.CreateMemberWithPaymentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "pi_2", req.PaymentData.PaymentIntentID)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"success":true,"member":{"id":"m-1","email":"maria@example.com"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("admin-token"))
	intent, err := c.CreateAdminPaymentIntent(context.Background(), model.AdminPaymentIntentRequest{
		Amount: decimal.NewFromInt(150), Email: "maria@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_2", intent.PaymentIntentID)

	resp, err := c.CreateMemberWithPayment(context.Background(), model.CreateMemberWithPaymentRequest{
		PaymentData: model.PaymentData{Method: model.PaymentCreditCard, PaymentIntentID: intent.PaymentIntentID},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "m-1", resp.Member.ID)
}

func TestQueryEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/annual-gala/quote", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("tickets"))
		assert.Equal(t, "true", r.URL.Query().Get("member"))
		_, _ = w.Write([]byte(`{"ticketCount":3,"totalPrice":"102"}`))
	}))
	defer srv.Close()

	q, err := New(srv.URL+"/").Quote(context.Background(), "annual-gala", 3, true)
	require.NoError(t, err)
	assert.Equal(t, 3, q.TicketCount)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.ListEvents(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, StatusOf(err))
}
