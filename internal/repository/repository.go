// Package repository implements all database queries for events,
// registrations and members. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basa-org/basa-events/internal/model"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEventFull is returned when a capacity-enforced booking does not fit.
	ErrEventFull = errors.New("event is fully booked")
	// ErrSlugTaken is returned when another event already uses the slug.
	ErrSlugTaken = errors.New("event slug already in use")
	// ErrAlreadyRecorded is returned when a payment intent was already turned
	// into registrations.
	ErrAlreadyRecorded = errors.New("payment already recorded")
	// ErrMemberExists is returned when a member with the same email exists.
	ErrMemberExists = errors.New("member with this email already exists")
	// ErrPaymentAlreadyUsed is returned when a payment intent already paid
	// for another membership.
	ErrPaymentAlreadyUsed = errors.New("payment already used for another membership")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `e.id, e.slug, e.title, e.description, e.starts_at, e.ends_at, e.location,
	e.capacity, e.category, e.price, e.member_price, e.features,
	e.speaker_name, e.speaker_title, e.speaker_topic, e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id)`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.Location,
		&e.Capacity, &e.Category, &e.Price, &e.MemberPrice, &e.Features,
		&e.Speaker.Name, &e.Speaker.Title, &e.Speaker.Topic, &e.CreatedAt, &e.UpdatedAt,
		&e.RegisteredCount,
	)
	if err != nil {
		return nil, err
	}
	if e.Features == nil {
		e.Features = []string{}
	}
	return &e, nil
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	now := time.Now().UTC()
	event := &model.Event{
		ID:          uuid.New().String(),
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Location:    req.Location,
		Capacity:    req.Capacity,
		Category:    req.Category,
		Price:       req.Price,
		MemberPrice: req.MemberPrice,
		Features:    req.Features,
		Speaker:     req.Speaker,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.Features == nil {
		event.Features = []string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, slug, title, description, starts_at, ends_at, location,
			capacity, category, price, member_price, features,
			speaker_name, speaker_title, speaker_topic, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		event.ID, event.Slug, event.Title, event.Description, event.StartsAt, event.EndsAt, event.Location,
		event.Capacity, event.Category, event.Price, event.MemberPrice, event.Features,
		event.Speaker.Name, event.Speaker.Title, event.Speaker.Topic, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// Update replaces the editable fields of an event.
func (r *EventRepository) Update(ctx context.Context, id string, req model.CreateEventRequest) (*model.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET slug = $2, title = $3, description = $4, starts_at = $5, ends_at = $6,
			location = $7, capacity = $8, category = $9, price = $10, member_price = $11,
			features = $12, speaker_name = $13, speaker_title = $14, speaker_topic = $15,
			updated_at = $16
		 WHERE id = $1`,
		id, req.Slug, req.Title, req.Description, req.StartsAt, req.EndsAt,
		req.Location, req.Capacity, req.Category, req.Price, req.MemberPrice,
		features, req.Speaker.Name, req.Speaker.Title, req.Speaker.Topic,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// List returns all events ordered by start time.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events e ORDER BY e.starts_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id)
}

// GetBySlug returns a single event or ErrNotFound.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return r.getOne(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.slug = $1`, slug)
}

func (r *EventRepository) getOne(ctx context.Context, query string, arg string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
