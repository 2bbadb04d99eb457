package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeedNW/snappfood-go/internal/domain/order"
)

const findAddressForUserSQL = `SELECT id, user_id, title, city, detail
	FROM addresses WHERE id = $1 AND user_id = $2`

var _ order.AddressRepository = (*AddressRepository)(nil)

// AddressRepository implements order.AddressRepository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// FindForUser returns the address only when it belongs to the given user.
// Returns order.ErrAddressNotFound otherwise.
func (r *AddressRepository) FindForUser(ctx context.Context, addressID, userID string) (*order.Address, error) {
	rows, err := r.pool.Query(ctx, findAddressForUserSQL, addressID, userID)
	if err != nil {
		return nil, fmt.Errorf("finding address %q: %w", addressID, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrAddressNotFound
		}
		return nil, fmt.Errorf("finding address %q: %w", addressID, err)
	}
	return &a, nil
}

func scanAddress(row pgx.CollectableRow) (order.Address, error) {
	var a order.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.City, &a.Detail)
	return a, err
}
