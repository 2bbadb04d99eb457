package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
)

const (
	insertDiscountSQL = `INSERT INTO discounts (id, code, percent, amount, expires_at, "limit", usage, supplier_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)`

	discountColumns = `id, code, percent, amount, expires_at, COALESCE("limit", 0), usage, COALESCE(supplier_id, ''), active`

	listDiscountsSQL    = `SELECT ` + discountColumns + ` FROM discounts ORDER BY code`
	getDiscountByIDSQL  = `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`
	getDiscountsByIDSQL = `SELECT ` + discountColumns + ` FROM discounts WHERE id = ANY($1)`
	findDiscountSQL     = `SELECT ` + discountColumns + ` FROM discounts WHERE UPPER(code) = UPPER($1)`
	deleteDiscountSQL   = `DELETE FROM discounts WHERE id = $1`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// Create persists a new discount code. Returns discount.ErrCodeExists when
// the code collides with an existing one.
func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	var percent, amount *decimal.Decimal
	switch d.Kind.Type() {
	case discount.KindPercent:
		v := d.Kind.Value()
		percent = &v
	case discount.KindFixedAmount:
		v := d.Kind.Value()
		amount = &v
	}

	var limit *int
	if d.Limit > 0 {
		limit = &d.Limit
	}

	_, err := r.pool.Exec(ctx, insertDiscountSQL,
		d.ID, d.Code, percent, amount, d.ExpiresAt, limit, d.Usage, d.SupplierID, d.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return discount.ErrCodeExists
		}
		return fmt.Errorf("creating discount %q: %w", d.Code, err)
	}
	return nil
}

// List returns all discount codes ordered by code.
func (r *DiscountRepository) List(ctx context.Context) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// GetByID returns a single discount by its identifier.
func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*discount.Discount, error) {
	rows, err := r.pool.Query(ctx, getDiscountByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}
	return &d, nil
}

// GetByIDs returns discounts matching any of the given IDs.
func (r *DiscountRepository) GetByIDs(ctx context.Context, ids []string) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, getDiscountsByIDSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting discounts by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// FindByCode looks up a discount by its code (case-insensitive).
// Returns discount.ErrNotFound when no such code exists.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Discount, error) {
	rows, err := r.pool.Query(ctx, findDiscountSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount by code %q: %w", code, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("finding discount by code %q: %w", code, err)
	}
	return &d, nil
}

// Delete removes a discount by ID.
func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount %q: %w", id, err)
	}
	return nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Discount, error) {
	var (
		d         discount.Discount
		percent   *decimal.Decimal
		amount    *decimal.Decimal
		expiresAt *time.Time
		limit     int32
		usage     int32
	)
	err := row.Scan(&d.ID, &d.Code, &percent, &amount, &expiresAt, &limit, &usage, &d.SupplierID, &d.Active)
	if err != nil {
		return d, err
	}

	switch {
	case percent != nil:
		d.Kind = discount.Percent(*percent)
	case amount != nil:
		d.Kind = discount.FixedAmount(*amount)
	}
	d.ExpiresAt = expiresAt
	d.Limit = int(limit)
	d.Usage = int(usage)
	return d, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
