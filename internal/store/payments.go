package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PaymentRepository writes the payment ledger kept in Postgres.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, user_id, event_id, amount, currency, receipt, razorpay_order_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.UserID, p.EventID, p.Amount, p.Currency, p.Receipt, p.RazorpayOrderID, p.Status, p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
