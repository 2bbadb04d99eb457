// Package basket implements the user basket: line mutation, discount code
// application, and the pricing engine that derives a priced snapshot.
package basket

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/food"
)

var (
	// ErrItemNotFound is returned when removing a food that is not in the basket.
	ErrItemNotFound = errors.New("food item not found in basket")
	// ErrDiscountNotInBasket is returned when removing a code that is not applied.
	ErrDiscountNotInBasket = errors.New("discount not found in basket")
)

// Line is one persisted basket row. Exactly one of FoodID and DiscountID
// is set: a food line carries a quantity, a discount line applies a code.
type Line struct {
	ID         string
	UserID     string
	FoodID     string
	Quantity   int
	DiscountID string
}

// Repository provides persistence for basket lines.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	// FindItem returns the food line for (userID, foodID), or nil when absent.
	FindItem(ctx context.Context, userID, foodID string) (*Line, error)
	Insert(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	Delete(ctx context.Context, lineID string) error
	Clear(ctx context.Context, userID string) error
}

// Service implements basket mutation and pricing.
type Service struct {
	baskets   Repository
	foods     food.Repository
	discounts discount.Repository
	now       func() time.Time
}

// NewService creates a basket Service.
func NewService(baskets Repository, foods food.Repository, discounts discount.Repository) *Service {
	return &Service{
		baskets:   baskets,
		foods:     foods,
		discounts: discounts,
		now:       time.Now,
	}
}

// AddItem adds one unit of the given food to the user's basket, creating
// the line at quantity 1 or incrementing an existing one.
func (s *Service) AddItem(ctx context.Context, userID, foodID string) error {
	if _, err := s.foods.GetByID(ctx, foodID); err != nil {
		return err
	}

	line, err := s.baskets.FindItem(ctx, userID, foodID)
	if err != nil {
		return errors.Wrap(err, "find basket item")
	}
	if line != nil {
		return s.baskets.UpdateQuantity(ctx, line.ID, line.Quantity+1)
	}

	return s.baskets.Insert(ctx, &Line{
		ID:       uuid.New().String(),
		UserID:   userID,
		FoodID:   foodID,
		Quantity: 1,
	})
}

// RemoveItem removes one unit of the given food from the user's basket.
// The line is deleted when its quantity reaches zero.
func (s *Service) RemoveItem(ctx context.Context, userID, foodID string) error {
	if _, err := s.foods.GetByID(ctx, foodID); err != nil {
		return err
	}

	line, err := s.baskets.FindItem(ctx, userID, foodID)
	if err != nil {
		return errors.Wrap(err, "find basket item")
	}
	if line == nil {
		return ErrItemNotFound
	}
	if line.Quantity <= 1 {
		return s.baskets.Delete(ctx, line.ID)
	}
	return s.baskets.UpdateQuantity(ctx, line.ID, line.Quantity-1)
}

// AddDiscount applies a discount code to the user's basket after running
// the full eligibility evaluation against the basket's current contents.
func (s *Service) AddDiscount(ctx context.Context, userID, code string) error {
	d, err := s.discounts.FindByCode(ctx, code)
	if err != nil {
		return err
	}

	bc, err := s.basketContext(ctx, userID)
	if err != nil {
		return err
	}

	if err := discount.Evaluate(d, bc, s.now()); err != nil {
		return err
	}

	return s.baskets.Insert(ctx, &Line{
		ID:         uuid.New().String(),
		UserID:     userID,
		DiscountID: d.ID,
	})
}

// RemoveDiscount removes an applied discount code from the user's basket.
func (s *Service) RemoveDiscount(ctx context.Context, userID, code string) error {
	d, err := s.discounts.FindByCode(ctx, code)
	if err != nil {
		return err
	}

	lines, err := s.baskets.ListByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "list basket lines")
	}
	for _, line := range lines {
		if line.DiscountID == d.ID {
			return s.baskets.Delete(ctx, line.ID)
		}
	}
	return ErrDiscountNotInBasket
}

// Clear deletes every line in the user's basket.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.baskets.Clear(ctx, userID)
}

// basketContext loads the basket and summarizes it for discount evaluation.
func (s *Service) basketContext(ctx context.Context, userID string) (discount.BasketContext, error) {
	var bc discount.BasketContext

	lines, err := s.baskets.ListByUser(ctx, userID)
	if err != nil {
		return bc, errors.Wrap(err, "list basket lines")
	}

	var foodIDs, discountIDs []string
	for _, line := range lines {
		if line.FoodID != "" {
			foodIDs = append(foodIDs, line.FoodID)
		}
		if line.DiscountID != "" {
			discountIDs = append(discountIDs, line.DiscountID)
		}
	}

	if len(foodIDs) > 0 {
		foods, err := s.foods.GetByIDs(ctx, foodIDs)
		if err != nil {
			return bc, errors.Wrap(err, "get basket foods")
		}
		for _, f := range foods {
			bc.ItemSupplierIDs = append(bc.ItemSupplierIDs, f.SupplierID)
		}
	}

	if len(discountIDs) > 0 {
		applied, err := s.discounts.GetByIDs(ctx, discountIDs)
		if err != nil {
			return bc, errors.Wrap(err, "get applied discounts")
		}
		for _, d := range applied {
			bc.AppliedDiscountIDs = append(bc.AppliedDiscountIDs, d.ID)
			if d.General() {
				bc.HasGeneral = true
			} else {
				bc.AppliedSupplierIDs = append(bc.AppliedSupplierIDs, d.SupplierID)
			}
		}
	}

	return bc, nil
}
