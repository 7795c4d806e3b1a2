package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basa-org/basa-events/internal/model"
)

func samplePending() Pending {
	return Pending{
		IntentID:    "pi_123",
		EventID:     "evt-1",
		TicketCount: 2,
		IsMember:    true,
		AmountCents: 10000,
		Currency:    "usd",
		Attendees: []model.Attendee{
			{Name: "Ana Ruiz", Email: "ana@example.com", Company: "Ruiz Bakery"},
			{Name: "Ben Ortiz", Email: "ben@example.com"},
		},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, 30*time.Minute)

	p := samplePending()
	body, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectSet("checkout:pi_123", string(body), 30*time.Minute).SetVal("OK")

	require.NoError(t, store.Save(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	p := samplePending()
	body, _ := json.Marshal(p)
	mock.ExpectSet("checkout:pi_123", string(body), time.Minute).SetErr(errors.New("READONLY"))

	err := store.Save(context.Background(), p)
	assert.ErrorContains(t, err, "READONLY")
}

func TestStore_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	p := samplePending()
	body, _ := json.Marshal(p)
	mock.ExpectGet("checkout:pi_123").SetVal(string(body))

	got, err := store.Get(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, p, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectGet("checkout:pi_404").RedisNil()

	_, err := store.Get(context.Background(), "pi_404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetCorrupt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectGet("checkout:pi_bad").SetVal("{not json")

	_, err := store.Get(context.Background(), "pi_bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectDel("checkout:pi_123").SetVal(0)

	assert.NoError(t, store.Delete(context.Background(), "pi_123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	assert.ErrorContains(t, store.Ping(context.Background()), "redis health check failed")
}
