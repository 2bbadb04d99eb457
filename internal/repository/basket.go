package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeedNW/snappfood-go/internal/domain/basket"
)

const (
	basketColumns = `id, user_id, COALESCE(food_id, ''), COALESCE(quantity, 0), COALESCE(discount_id, '')`

	listBasketLinesSQL = `SELECT ` + basketColumns + ` FROM basket_lines WHERE user_id = $1 ORDER BY id`
	findBasketItemSQL  = `SELECT ` + basketColumns + ` FROM basket_lines WHERE user_id = $1 AND food_id = $2`

	insertBasketLineSQL = `INSERT INTO basket_lines (id, user_id, food_id, quantity, discount_id)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0), NULLIF($5, ''))`

	updateBasketQuantitySQL = `UPDATE basket_lines SET quantity = $2 WHERE id = $1`
	deleteBasketLineSQL     = `DELETE FROM basket_lines WHERE id = $1`
	clearBasketSQL          = `DELETE FROM basket_lines WHERE user_id = $1`
)

var _ basket.Repository = (*BasketRepository)(nil)

// BasketRepository implements basket.Repository backed by PostgreSQL.
type BasketRepository struct {
	pool *pgxpool.Pool
}

// NewBasketRepository returns a BasketRepository that uses the given pool.
func NewBasketRepository(pool *pgxpool.Pool) *BasketRepository {
	return &BasketRepository{pool: pool}
}

// ListByUser returns every line in the user's basket.
func (r *BasketRepository) ListByUser(ctx context.Context, userID string) ([]basket.Line, error) {
	rows, err := r.pool.Query(ctx, listBasketLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing basket lines for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanBasketLine)
}

// FindItem returns the food line for (userID, foodID), or nil when the
// food is not in the basket.
func (r *BasketRepository) FindItem(ctx context.Context, userID, foodID string) (*basket.Line, error) {
	rows, err := r.pool.Query(ctx, findBasketItemSQL, userID, foodID)
	if err != nil {
		return nil, fmt.Errorf("finding basket item: %w", err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanBasketLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding basket item: %w", err)
	}
	return &line, nil
}

// Insert persists a new basket line.
func (r *BasketRepository) Insert(ctx context.Context, line *basket.Line) error {
	_, err := r.pool.Exec(ctx, insertBasketLineSQL,
		line.ID, line.UserID, line.FoodID, line.Quantity, line.DiscountID,
	)
	if err != nil {
		return fmt.Errorf("inserting basket line: %w", err)
	}
	return nil
}

// UpdateQuantity sets the quantity of an existing food line.
func (r *BasketRepository) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	_, err := r.pool.Exec(ctx, updateBasketQuantitySQL, lineID, quantity)
	if err != nil {
		return fmt.Errorf("updating basket line %q: %w", lineID, err)
	}
	return nil
}

// Delete removes one basket line.
func (r *BasketRepository) Delete(ctx context.Context, lineID string) error {
	_, err := r.pool.Exec(ctx, deleteBasketLineSQL, lineID)
	if err != nil {
		return fmt.Errorf("deleting basket line %q: %w", lineID, err)
	}
	return nil
}

// Clear removes every line in the user's basket.
func (r *BasketRepository) Clear(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, clearBasketSQL, userID)
	if err != nil {
		return fmt.Errorf("clearing basket for user %q: %w", userID, err)
	}
	return nil
}

func scanBasketLine(row pgx.CollectableRow) (basket.Line, error) {
	var line basket.Line
	err := row.Scan(&line.ID, &line.UserID, &line.FoodID, &line.Quantity, &line.DiscountID)
	return line, err
}
