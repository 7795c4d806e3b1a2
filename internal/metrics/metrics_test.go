package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPaymentIntent(t *testing.T) {
	before := testutil.ToFloat64(paymentIntents.WithLabelValues(FlowEvent, OutcomeCreated))
	PaymentIntent(FlowEvent, OutcomeCreated)
	assert.Equal(t, before+1, testutil.ToFloat64(paymentIntents.WithLabelValues(FlowEvent, OutcomeCreated)))
}

func TestRegistrations(t *testing.T) {
	before := testutil.ToFloat64(registrations.WithLabelValues("paid"))
	Registrations("paid", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(registrations.WithLabelValues("paid")))
}

func TestOverbookedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(overbooked)
	Overbooked(0)
	Overbooked(-1)
	assert.Equal(t, before, testutil.ToFloat64(overbooked))
	Overbooked(2)
	assert.Equal(t, before+2, testutil.ToFloat64(overbooked))
}

func TestMemberCreated(t *testing.T) {
	before := testutil.ToFloat64(members.WithLabelValues("check"))
	MemberCreated("check")
	assert.Equal(t, before+1, testutil.ToFloat64(members.WithLabelValues("check")))
}
