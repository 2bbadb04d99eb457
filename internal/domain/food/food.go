// Package food holds the catalog read model consumed by basket pricing.
package food

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested food does not exist.
var ErrNotFound = errors.New("food not found")

// Food is a single menu item offered by a supplier.
type Food struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	// Discount is an item-level percentage applied before any basket
	// discount code, active only while IsActive is true.
	Discount   decimal.Decimal
	IsActive   bool
	SupplierID string
}

// Repository defines read operations for the food catalog.
type Repository interface {
	List(ctx context.Context) ([]Food, error)
	GetByID(ctx context.Context, id string) (*Food, error)
	GetByIDs(ctx context.Context, ids []string) ([]Food, error)
}
