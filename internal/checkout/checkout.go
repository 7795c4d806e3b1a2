// Package checkout keeps the attendee list of an in-flight event checkout
// between payment intent creation and payment confirmation. Entries live in
// Redis and expire after a TTL; the payment intent metadata remains the
// fallback record when an entry is gone.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/basa-org/basa-events/internal/model"
)

// ErrNotFound is returned when no pending checkout exists for an intent.
var ErrNotFound = errors.New("pending checkout not found")

const keyPrefix = "checkout:"

// Pending is what the server knows about a checkout before it is paid.
type Pending struct {
	IntentID    string           `json:"intentId"`
	EventID     string           `json:"eventId"`
	TicketCount int              `json:"ticketCount"`
	IsMember    bool             `json:"isMember"`
	AmountCents int64            `json:"amountCents"`
	Currency    string           `json:"currency"`
	Attendees   []model.Attendee `json:"attendees"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Store persists pending checkouts in Redis.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewStore constructs a Store whose entries expire after ttl.
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(intentID string) string {
	return keyPrefix + intentID
}

// Save stores p under its intent id, replacing any previous entry.
func (s *Store) Save(ctx context.Context, p Pending) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pending checkout: %w", err)
	}
	if err := s.rdb.Set(ctx, key(p.IntentID), string(body), s.ttl).Err(); err != nil {
		return fmt.Errorf("save pending checkout: %w", err)
	}
	return nil
}

// Get loads the pending checkout for intentID or returns ErrNotFound.
func (s *Store) Get(ctx context.Context, intentID string) (*Pending, error) {
	body, err := s.rdb.Get(ctx, key(intentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load pending checkout: %w", err)
	}
	var p Pending
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode pending checkout: %w", err)
	}
	return &p, nil
}

// Delete removes the pending checkout for intentID. Missing entries are not
// an error.
func (s *Store) Delete(ctx context.Context, intentID string) error {
	if err := s.rdb.Del(ctx, key(intentID)).Err(); err != nil {
		return fmt.Errorf("delete pending checkout: %w", err)
	}
	return nil
}
