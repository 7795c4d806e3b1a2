package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basa-org/basa-events/internal/model"
)

// PurchaseRecord is a ticket purchase together with the registrations it
// created. Overbooked is how many seats the event is over capacity after the
// write; it is only ever non-zero for paid purchases.
type PurchaseRecord struct {
	Purchase      model.TicketPurchase
	Registrations []model.Registration
	Overbooked    int
}

// RegistrationRepository handles persistence for ticket purchases and
// registrations.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Book records a free/manual purchase and refuses it with ErrEventFull when
// the attendees do not fit.
func (r *RegistrationRepository) Book(ctx context.Context, p model.TicketPurchase, attendees []model.Attendee) (*PurchaseRecord, error) {
	return r.record(ctx, p, attendees, true)
}

// RecordPaid records a purchase whose payment already succeeded. The
// capacity is not enforced here: the only capacity check for paid
// purchases happens before the payment intent is created, as a plain
// read-then-compare. Two concurrent checkouts can both pass it, so a paid
// purchase may push the event over capacity; that is reported through
// PurchaseRecord.Overbooked instead of rejecting money already taken.
//
// The event row is still locked with SELECT … FOR UPDATE so that concurrent
// writers serialise and the registration count each one observes is exact.
func (r *RegistrationRepository) RecordPaid(ctx context.Context, p model.TicketPurchase, attendees []model.Attendee) (*PurchaseRecord, error) {
	return r.record(ctx, p, attendees, false)
}

func (r *RegistrationRepository) record(ctx context.Context, p model.TicketPurchase, attendees []model.Attendee, enforce bool) (rec *PurchaseRecord, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var capacity, registered int
	err = tx.QueryRow(ctx,
		`SELECT capacity FROM events WHERE id = $1 FOR UPDATE`,
		p.EventID,
	).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`,
		p.EventID,
	).Scan(&registered)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}

	if enforce && registered+len(attendees) > capacity {
		return nil, ErrEventFull
	}

	now := time.Now().UTC()
	p.ID = uuid.New().String()
	p.TicketCount = len(attendees)
	p.CreatedAt = now

	tag, err := tx.Exec(ctx,
		`INSERT INTO ticket_purchases (id, event_id, payment_intent_id, ticket_count, is_member,
			amount_cents, currency, contact_name, contact_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (payment_intent_id) DO NOTHING`,
		p.ID, p.EventID, nullIfEmpty(p.PaymentIntentID), p.TicketCount, p.IsMember,
		p.AmountCents, p.Currency, p.ContactName, p.ContactEmail, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ticket purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyRecorded
	}

	regs := make([]model.Registration, 0, len(attendees))
	batch := &pgx.Batch{}
	for _, a := range attendees {
		reg := model.Registration{
			ID:         uuid.New().String(),
			EventID:    p.EventID,
			PurchaseID: p.ID,
			Name:       a.Name,
			Email:      a.Email,
			Company:    a.Company,
			Phone:      a.Phone,
			CreatedAt:  now,
		}
		batch.Queue(
			`INSERT INTO registrations (id, event_id, purchase_id, name, email, company, phone, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			reg.ID, reg.EventID, reg.PurchaseID, reg.Name, reg.Email, reg.Company, reg.Phone, reg.CreatedAt,
		)
		regs = append(regs, reg)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert registrations: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	over := registered + len(attendees) - capacity
	if over < 0 {
		over = 0
	}
	return &PurchaseRecord{Purchase: p, Registrations: regs, Overbooked: over}, nil
}

// GetByPaymentIntent returns the purchase recorded for a payment intent and
// its registrations, or ErrNotFound.
func (r *RegistrationRepository) GetByPaymentIntent(ctx context.Context, intentID string) (*PurchaseRecord, error) {
	var p model.TicketPurchase
	var pi *string
	err := r.db.QueryRow(ctx,
		`SELECT id, event_id, payment_intent_id, ticket_count, is_member, amount_cents,
			currency, contact_name, contact_email, created_at
		 FROM ticket_purchases WHERE payment_intent_id = $1`,
		intentID,
	).Scan(&p.ID, &p.EventID, &pi, &p.TicketCount, &p.IsMember, &p.AmountCents,
		&p.Currency, &p.ContactName, &p.ContactEmail, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ticket purchase: %w", err)
	}
	if pi != nil {
		p.PaymentIntentID = *pi
	}

	regs, err := r.list(ctx, `WHERE purchase_id = $1`, p.ID)
	if err != nil {
		return nil, err
	}
	return &PurchaseRecord{Purchase: p, Registrations: regs}, nil
}

// ListByEvent returns all registrations for a given event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return r.list(ctx, `WHERE event_id = $1`, eventID)
}

func (r *RegistrationRepository) list(ctx context.Context, where string, arg string) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, purchase_id, name, email, company, phone, created_at
		 FROM registrations `+where+`
		 ORDER BY created_at ASC, id ASC`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.PurchaseID, &reg.Name, &reg.Email,
			&reg.Company, &reg.Phone, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
