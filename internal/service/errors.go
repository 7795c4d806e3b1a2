package service

import (
	"errors"
	"fmt"

	"github.com/basa-org/basa-events/internal/repository"
)

var (
	// ErrInvalidInput wraps every validation failure; the wrapped message is
	// safe to show to the user.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCapacityExceeded is returned when more tickets are requested than
	// the event has left.
	ErrCapacityExceeded = errors.New("not enough spots remaining")
	// ErrNoPaymentRequired is returned when a checkout totals zero.
	ErrNoPaymentRequired = errors.New("no payment required for this registration")
	// ErrPaymentSetup wraps processor failures while creating or reading an intent.
	ErrPaymentSetup = errors.New("failed to create payment")
	// ErrPaymentNotSucceeded is returned when a confirmation references an
	// intent that has not been paid.
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	// ErrEventNotFound is repository.ErrNotFound for event lookups.
	ErrEventNotFound = fmt.Errorf("event %w", repository.ErrNotFound)
)
