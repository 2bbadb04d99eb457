// Package order materializes priced baskets into persisted orders.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order lifecycle states.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusCanceled Status = "CANCELED"
)

// LineStatus enumerates per-line fulfilment states.
type LineStatus string

const (
	LineStatusPending LineStatus = "PENDING"
	LineStatusSent    LineStatus = "SENT"
)

// Order is an immutable snapshot of a priced basket at checkout time,
// mutable only in its status.
type Order struct {
	ID             string
	UserID         string
	AddressID      string
	TotalAmount    decimal.Decimal
	PaymentAmount  decimal.Decimal
	DiscountAmount decimal.Decimal
	Description    string
	Status         Status
	Lines          []Line
	CreatedAt      time.Time
}

// Line is one distinct food in an order.
type Line struct {
	ID         string
	OrderID    string
	FoodID     string
	SupplierID string
	Quantity   int
	Status     LineStatus
}

// Address is a user shipping address, validated at materialization.
type Address struct {
	ID     string
	UserID string
	Title  string
	City   string
	Detail string
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order with its lines and consumes one use of
	// every discount in consumeDiscountIDs, all inside one transaction.
	// It fails the whole transaction when any discount has no capacity left.
	Create(ctx context.Context, o *Order, consumeDiscountIDs []string) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

// AddressRepository resolves shipping addresses scoped to their owner.
type AddressRepository interface {
	// FindForUser returns the address only when it belongs to userID.
	FindForUser(ctx context.Context, addressID, userID string) (*Address, error)
}
