// Package registration drives the public event checkout: collecting one
// attendee per ticket, requesting the payment intent and confirming the
// card payment.
package registration

import (
	"fmt"
	"strings"

	"github.com/basa-org/basa-events/internal/model"
)

// Collector keeps exactly one attendee record per ticket, between one and
// the number of spots left.
type Collector struct {
	max       int
	attendees []model.Attendee
}

// NewCollector returns a Collector for one ticket, with at most
// availableSpots tickets. A sold out event still gets one slot so the form
// can render; Form refuses to submit it.
func NewCollector(availableSpots int) *Collector {
	return &Collector{max: max(availableSpots, 1), attendees: make([]model.Attendee, 1)}
}

// TicketCount is the number of tickets selected.
func (c *Collector) TicketCount() int {
	return len(c.attendees)
}

// Max is the highest selectable ticket count.
func (c *Collector) Max() int {
	return c.max
}

// SetTicketCount resizes the attendee list to n clamped to [1, Max]. New
// slots are blank; shrinking drops entries from the end.
func (c *Collector) SetTicketCount(n int) int {
	n = min(max(n, 1), c.max)
	switch {
	case n > len(c.attendees):
		c.attendees = append(c.attendees, make([]model.Attendee, n-len(c.attendees))...)
	case n < len(c.attendees):
		c.attendees = c.attendees[:n:n]
	}
	return n
}

// CanIncrement reports whether another ticket may be added.
func (c *Collector) CanIncrement() bool { return len(c.attendees) < c.max }

// CanDecrement reports whether a ticket may be removed.
func (c *Collector) CanDecrement() bool { return len(c.attendees) > 1 }

// Increment adds a ticket if allowed.
func (c *Collector) Increment() bool {
	if !c.CanIncrement() {
		return false
	}
	c.SetTicketCount(len(c.attendees) + 1)
	return true
}

// Decrement removes the last ticket if allowed.
func (c *Collector) Decrement() bool {
	if !c.CanDecrement() {
		return false
	}
	c.SetTicketCount(len(c.attendees) - 1)
	return true
}

// Set replaces the attendee at index i.
func (c *Collector) Set(i int, a model.Attendee) error {
	if i < 0 || i >= len(c.attendees) {
		return fmt.Errorf("attendee %d out of range", i+1)
	}
	c.attendees[i] = a
	return nil
}

// Attendees returns a copy of the attendee list.
func (c *Collector) Attendees() []model.Attendee {
	return append([]model.Attendee(nil), c.attendees...)
}

// Validate requires a name and email for every ticket.
func (c *Collector) Validate() error {
	for i, a := range c.attendees {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
			return fmt.Errorf("%w: please fill in name and email for attendee %d", ErrIncomplete, i+1)
		}
	}
	return nil
}

// Primary is the contact the receipt goes to.
func (c *Collector) Primary() model.Attendee {
	return c.attendees[0]
}

// Names lists the attendee names in ticket order.
func (c *Collector) Names() []string {
	names := make([]string, len(c.attendees))
	for i, a := range c.attendees {
		names[i] = strings.TrimSpace(a.Name)
	}
	return names
}
