// Package client is the HTTP client the registration form and the admin
// wizard use to reach the API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/basa-org/basa-events/internal/model"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx response. Message is the server's error text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client calls the events API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New returns a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body model.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

// ListEvents calls GET /events.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent calls GET /events/{slug}.
func (c *Client) GetEvent(ctx context.Context, slug string) (*model.Event, error) {
	var event model.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(slug), nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Quote calls GET /events/{slug}/quote.
func (c *Client) Quote(ctx context.Context, slug string, tickets int, isMember bool) (*model.Quote, error) {
	q := url.Values{}
	q.Set("tickets", strconv.Itoa(tickets))
	q.Set("member", strconv.FormatBool(isMember))
	var quote model.Quote
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(slug)+"/quote?"+q.Encode(), nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// Tiers calls GET /tiers.
func (c *Client) Tiers(ctx context.Context) ([]model.Tier, error) {
	var tiers []model.Tier
	if err := c.do(ctx, http.MethodGet, "/tiers", nil, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// CreateEventPaymentIntent calls POST /payments/events.
func (c *Client) CreateEventPaymentIntent(ctx context.Context, req model.EventPaymentIntentRequest) (*model.EventPaymentIntentResponse, error) {
	var resp model.EventPaymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/payments/events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmEventPayment calls POST /payments/events/confirm.
func (c *Client) ConfirmEventPayment(ctx context.Context, paymentID string) (*model.ConfirmEventPaymentResponse, error) {
	var resp model.ConfirmEventPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/payments/events/confirm", model.ConfirmEventPaymentRequest{PaymentID: paymentID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateAdminPaymentIntent calls POST /admin/create-payment-intent.
func (c *Client) CreateAdminPaymentIntent(ctx context.Context, req model.AdminPaymentIntentRequest) (*model.AdminPaymentIntentResponse, error) {
	var resp model.AdminPaymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/admin/create-payment-intent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateMemberWithPayment calls POST /admin/create-member-with-payment.
func (c *Client) CreateMemberWithPayment(ctx context.Context, req model.CreateMemberWithPaymentRequest) (*model.CreateMemberWithPaymentResponse, error) {
	var resp model.CreateMemberWithPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/admin/create-member-with-payment", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMembers calls GET /admin/members.
func (c *Client) ListMembers(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	if err := c.do(ctx, http.MethodGet, "/admin/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}
