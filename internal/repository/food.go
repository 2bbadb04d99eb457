package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saeedNW/snappfood-go/internal/domain/food"
)

const (
	foodColumns = `id, name, description, price, discount, is_active, supplier_id`

	listFoodsSQL    = `SELECT ` + foodColumns + ` FROM foods ORDER BY id`
	getFoodByIDSQL  = `SELECT ` + foodColumns + ` FROM foods WHERE id = $1`
	getFoodsByIDSQL = `SELECT ` + foodColumns + ` FROM foods WHERE id = ANY($1)`
)

var _ food.Repository = (*FoodRepository)(nil)

// FoodRepository implements food.Repository backed by PostgreSQL.
type FoodRepository struct {
	pool *pgxpool.Pool
}

// NewFoodRepository returns a FoodRepository that uses the given pool.
func NewFoodRepository(pool *pgxpool.Pool) *FoodRepository {
	return &FoodRepository{pool: pool}
}

// List returns all foods ordered by ID.
func (r *FoodRepository) List(ctx context.Context) ([]food.Food, error) {
	rows, err := r.pool.Query(ctx, listFoodsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing foods: %w", err)
	}
	return pgx.CollectRows(rows, scanFood)
}

// GetByID returns a single food by its identifier.
// Returns food.ErrNotFound when no matching food exists.
func (r *FoodRepository) GetByID(ctx context.Context, id string) (*food.Food, error) {
	rows, err := r.pool.Query(ctx, getFoodByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting food %q: %w", id, err)
	}

	f, err := pgx.CollectExactlyOneRow(rows, scanFood)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, food.ErrNotFound
		}
		return nil, fmt.Errorf("getting food %q: %w", id, err)
	}
	return &f, nil
}

// GetByIDs returns foods matching any of the given IDs.
func (r *FoodRepository) GetByIDs(ctx context.Context, ids []string) ([]food.Food, error) {
	rows, err := r.pool.Query(ctx, getFoodsByIDSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting foods by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanFood)
}

func scanFood(row pgx.CollectableRow) (food.Food, error) {
	var f food.Food
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.Discount, &f.IsActive, &f.SupplierID)
	return f, err
}
