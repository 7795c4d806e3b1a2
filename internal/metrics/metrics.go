// Package metrics holds the Prometheus collectors for the payment flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Flow labels.
const (
	FlowEvent      = "event"
	FlowMembership = "membership"
)

// Outcome labels.
const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

var (
	paymentIntents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basa_payment_intents_total",
			Help: "Payment intent creation attempts by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basa_registrations_total",
			Help: "Event registrations recorded",
		},
		[]string{"source"},
	)

	overbooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "basa_overbooked_registrations_total",
			Help: "Registrations recorded beyond event capacity",
		},
	)

	members = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basa_members_created_total",
			Help: "Members created from the admin console by payment method",
		},
		[]string{"method"},
	)
)

// PaymentIntent counts an intent creation attempt.
func PaymentIntent(flow, outcome string) {
	paymentIntents.WithLabelValues(flow, outcome).Inc()
}

// Registrations counts n recorded registrations; source is "paid" or "manual".
func Registrations(source string, n int) {
	registrations.WithLabelValues(source).Add(float64(n))
}

// Overbooked counts n registrations recorded over capacity.
func Overbooked(n int) {
	if n > 0 {
		overbooked.Add(float64(n))
	}
}

// MemberCreated counts a new member by payment method.
func MemberCreated(method string) {
	members.WithLabelValues(method).Inc()
}
