package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/basa-org/basa-events/internal/model"
)

// MemberRepository handles persistence for members and their payments.
type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository constructs a MemberRepository.
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

// CreateWithPayment inserts the member and its payment record in a single
// transaction. IDs and timestamps are assigned here.
func (r *MemberRepository) CreateWithPayment(ctx context.Context, m model.Member, p model.MemberPayment) (_ *model.Member, _ *model.MemberPayment, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	m.ID = uuid.New().String()
	m.CreatedAt = now
	p.ID = uuid.New().String()
	p.MemberID = m.ID
	p.CreatedAt = now

	_, err = tx.Exec(ctx,
		`INSERT INTO members (id, first_name, last_name, email, phone, business_name, tier, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.FirstName, m.LastName, m.Email, m.Phone, m.BusinessName, m.Tier, string(m.Role), m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, ErrMemberExists
		}
		return nil, nil, fmt.Errorf("insert member: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO member_payments (id, member_id, method, amount, payment_intent_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.MemberID, string(p.Method), p.Amount, nullIfEmpty(p.PaymentIntentID), p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, ErrPaymentAlreadyUsed
		}
		return nil, nil, fmt.Errorf("insert member payment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &m, &p, nil
}

// List returns all members, newest first.
func (r *MemberRepository) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, first_name, last_name, email, phone, business_name, tier, role, created_at
		 FROM members
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		var role string
		if err := rows.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.Phone,
			&m.BusinessName, &m.Tier, &role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = model.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}
