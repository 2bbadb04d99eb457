package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/saeedNW/snappfood-go/internal/domain/basket"
)

// Materialization failures.
var (
	ErrEmptyBasket     = errors.New("basket is empty")
	ErrAddressNotFound = errors.New("address not found")
	ErrNotFound        = errors.New("order not found")
)

// Service converts priced baskets into persisted orders.
type Service struct {
	orders    Repository
	addresses AddressRepository
}

// NewService creates an order Service.
func NewService(orders Repository, addresses AddressRepository) *Service {
	return &Service{orders: orders, addresses: addresses}
}

// Create materializes a priced basket into an order with one line per
// priced line, atomically. Amounts are copied verbatim from the snapshot.
// The basket itself is left untouched; an order is a copy, not a move.
func (s *Service) Create(ctx context.Context, userID, addressID string, priced *basket.PricedBasket, description string) (*Order, error) {
	if _, err := s.addresses.FindForUser(ctx, addressID, userID); err != nil {
		return nil, err
	}
	if len(priced.Lines) == 0 {
		return nil, ErrEmptyBasket
	}

	o := &Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		AddressID:      addressID,
		TotalAmount:    priced.TotalAmount,
		PaymentAmount:  priced.PaymentAmount,
		DiscountAmount: priced.TotalDiscountAmount,
		Description:    description,
		Status:         StatusPending,
	}
	for _, line := range priced.Lines {
		o.Lines = append(o.Lines, Line{
			ID:         uuid.New().String(),
			OrderID:    o.ID,
			FoodID:     line.FoodID,
			SupplierID: line.SupplierID,
			Quantity:   line.Quantity,
			Status:     LineStatusPending,
		})
	}

	if err := s.orders.Create(ctx, o, priced.AppliedDiscountIDs); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// GetByID returns a single order.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}
