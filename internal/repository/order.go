package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, address_id, total_amount, payment_amount, discount_amount, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertOrderLineSQL = `INSERT INTO order_lines (id, order_id, food_id, supplier_id, quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Conditional atomic consumption: the increment only lands while
	// capacity remains, serializing concurrent checkouts on the row.
	consumeDiscountSQL = `UPDATE discounts SET usage = usage + 1
		WHERE id = $1 AND ("limit" IS NULL OR usage < "limit")`

	orderColumns = `id, user_id, COALESCE(address_id, ''), total_amount, payment_amount, discount_amount, description, status, created_at`

	getOrderByIDSQL     = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderLinesSQL = `SELECT id, order_id, food_id, supplier_id, quantity, status
		FROM order_lines WHERE order_id = $1 ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its lines, and the usage consumption of every
// applied discount inside a single transaction. Any failure rolls the
// whole order back; no partial state is ever observable.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, consumeDiscountIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, nullIfEmpty(o.AddressID),
		o.TotalAmount, o.PaymentAmount, o.DiscountAmount,
		o.Description, string(o.Status),
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for _, line := range o.Lines {
		batch.Queue(insertOrderLineSQL,
			line.ID, line.OrderID, line.FoodID, line.SupplierID, line.Quantity, string(line.Status),
		)
	}
	for _, id := range consumeDiscountIDs {
		batch.Queue(consumeDiscountSQL, id)
	}

	results := tx.SendBatch(ctx, batch)
	for range o.Lines {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("creating order lines for %q: %w", o.ID, err)
		}
	}
	for _, id := range consumeDiscountIDs {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("consuming discount %q: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			results.Close()
			return discount.ErrCapacityFull
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing order batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	lineRows, err := r.pool.Query(ctx, listOrderLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order lines for %q: %w", id, err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanOrderLine)
	if err != nil {
		return nil, fmt.Errorf("getting order lines for %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first, without lines.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.AddressID,
		&o.TotalAmount, &o.PaymentAmount, &o.DiscountAmount,
		&o.Description, &status, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderLine(row pgx.CollectableRow) (order.Line, error) {
	var (
		line   order.Line
		status string
	)
	err := row.Scan(&line.ID, &line.OrderID, &line.FoodID, &line.SupplierID, &line.Quantity, &status)
	line.Status = order.LineStatus(status)
	return line, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
