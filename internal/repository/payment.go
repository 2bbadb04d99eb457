package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeedNW/snappfood-go/internal/domain/payment"
)

const (
	insertPaymentSQL = `INSERT INTO payments (id, order_id, user_id, amount, invoice_number, authority, verified)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`

	findPaymentByAuthoritySQL = `SELECT id, order_id, user_id, amount, invoice_number, COALESCE(authority, ''), verified, created_at
		FROM payments WHERE authority = $1`

	setPaymentAuthoritySQL = `UPDATE payments SET authority = $2 WHERE id = $1`

	// Guarded flip: a concurrent duplicate callback loses the race here
	// and surfaces as a conflict instead of a double settlement.
	markPaymentVerifiedSQL = `UPDATE payments SET verified = TRUE WHERE id = $1 AND verified = FALSE`

	markOrderPaidSQL = `UPDATE orders SET status = 'PAID' WHERE id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, insertPaymentSQL,
		p.ID, p.OrderID, p.UserID, p.Amount, p.InvoiceNumber, p.Authority, p.Verified,
	)
	if err != nil {
		return fmt.Errorf("creating payment %q: %w", p.ID, err)
	}
	return nil
}

// FindByAuthority looks up a payment by its gateway authority token.
// Returns payment.ErrNotFound when no matching payment exists.
func (r *PaymentRepository) FindByAuthority(ctx context.Context, authority string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, findPaymentByAuthoritySQL, authority)
	if err != nil {
		return nil, fmt.Errorf("finding payment by authority: %w", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("finding payment by authority: %w", err)
	}
	return &p, nil
}

// SetAuthority stores the gateway-assigned authority token on a payment.
func (r *PaymentRepository) SetAuthority(ctx context.Context, paymentID, authority string) error {
	_, err := r.pool.Exec(ctx, setPaymentAuthoritySQL, paymentID, authority)
	if err != nil {
		return fmt.Errorf("setting authority on payment %q: %w", paymentID, err)
	}
	return nil
}

// MarkVerified flips the payment to verified and its order to PAID in one
// transaction, so a crash between the two writes cannot tear the state.
func (r *PaymentRepository) MarkVerified(ctx context.Context, paymentID, orderID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning verify transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, markPaymentVerifiedSQL, paymentID)
	if err != nil {
		return fmt.Errorf("marking payment %q verified: %w", paymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrAlreadyVerified
	}

	if _, err := tx.Exec(ctx, markOrderPaidSQL, orderID); err != nil {
		return fmt.Errorf("marking order %q paid: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing verify for payment %q: %w", paymentID, err)
	}
	return nil
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.InvoiceNumber, &p.Authority, &p.Verified, &p.CreatedAt)
	return p, err
}
