package basket

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/food"
)

// PricedLine is one food line with every discount applied.
type PricedLine struct {
	FoodID   string
	Name     string
	Quantity int
	// UnitPrice is the undiscounted price of one unit.
	UnitPrice decimal.Decimal
	// TotalAmount is UnitPrice * Quantity before any discount.
	TotalAmount decimal.Decimal
	// DiscountAmount is the food-level plus supplier-code discount.
	DiscountAmount decimal.Decimal
	// PaymentAmount is TotalAmount - DiscountAmount.
	PaymentAmount decimal.Decimal
	// DiscountCode names the supplier code applied to this line, if any.
	DiscountCode string
	SupplierID   string
}

// GeneralDiscountDetail reports the unscoped code applied to the basket
// aggregate. The zero value means no general discount applied.
type GeneralDiscountDetail struct {
	Applied        bool
	Code           string
	Percent        decimal.Decimal
	Amount         decimal.Decimal
	DiscountAmount decimal.Decimal
}

// PricedBasket is the derived, never-persisted result of pricing a basket.
type PricedBasket struct {
	TotalAmount         decimal.Decimal
	PaymentAmount       decimal.Decimal
	TotalDiscountAmount decimal.Decimal
	Lines               []PricedLine
	GeneralDiscount     GeneralDiscountDetail
	// AppliedDiscountIDs lists the codes that actually reduced the price,
	// in need of usage consumption at checkout.
	AppliedDiscountIDs []string
}

// Item pairs a food with its basket quantity for pricing.
type Item struct {
	Food     food.Food
	Quantity int
}

// Price loads the user's basket and derives its priced snapshot. It is a
// pure read: no counters move and nothing is cached.
func (s *Service) Price(ctx context.Context, userID string) (*PricedBasket, error) {
	lines, err := s.baskets.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list basket lines")
	}

	var (
		items       []Item
		discountIDs []string
	)
	foodQty := make(map[string]int)
	var foodIDs []string
	for _, line := range lines {
		switch {
		case line.FoodID != "":
			if _, seen := foodQty[line.FoodID]; !seen {
				foodIDs = append(foodIDs, line.FoodID)
			}
			foodQty[line.FoodID] += line.Quantity
		case line.DiscountID != "":
			discountIDs = append(discountIDs, line.DiscountID)
		}
	}

	if len(foodIDs) > 0 {
		foods, err := s.foods.GetByIDs(ctx, foodIDs)
		if err != nil {
			return nil, errors.Wrap(err, "get basket foods")
		}
		byID := make(map[string]food.Food, len(foods))
		for _, f := range foods {
			byID[f.ID] = f
		}
		for _, id := range foodIDs {
			f, ok := byID[id]
			if !ok {
				return nil, errors.Wrapf(food.ErrNotFound, "basket references food %s", id)
			}
			items = append(items, Item{Food: f, Quantity: foodQty[id]})
		}
	}

	var supplierCodes []discount.Discount
	var general *discount.Discount
	if len(discountIDs) > 0 {
		applied, err := s.discounts.GetByIDs(ctx, discountIDs)
		if err != nil {
			return nil, errors.Wrap(err, "get applied discounts")
		}
		for i := range applied {
			if applied[i].General() {
				if general == nil {
					general = &applied[i]
				}
			} else {
				supplierCodes = append(supplierCodes, applied[i])
			}
		}
	}

	priced := PriceLines(items, supplierCodes, general)
	return &priced, nil
}

// PriceLines applies the pricing precedence to the given lines:
// food-level percentage first, then the matching supplier-scoped code per
// line, then the general code once on the aggregate payment amount.
// The order is fixed; reordering changes the result.
func PriceLines(items []Item, supplierCodes []discount.Discount, general *discount.Discount) PricedBasket {
	var priced PricedBasket
	priced.TotalAmount = decimal.Zero
	priced.PaymentAmount = decimal.Zero
	priced.TotalDiscountAmount = decimal.Zero

	appliedIDs := make(map[string]bool)

	for _, item := range items {
		f := item.Food
		qty := decimal.NewFromInt(int64(item.Quantity))
		base := f.Price.Mul(qty)
		remaining := base
		discountAmount := decimal.Zero

		// Item-level food discount applies first, regardless of codes.
		if f.IsActive && f.Discount.IsPositive() {
			foodDiscount := base.Mul(f.Discount).Div(hundred)
			discountAmount = discountAmount.Add(foodDiscount)
			remaining = remaining.Sub(foodDiscount)
		}

		// First matching supplier code wins.
		line := PricedLine{
			FoodID:      f.ID,
			Name:        f.Name,
			Quantity:    item.Quantity,
			UnitPrice:   f.Price,
			TotalAmount: base,
			SupplierID:  f.SupplierID,
		}
		for i := range supplierCodes {
			d := &supplierCodes[i]
			if d.SupplierID != f.SupplierID {
				continue
			}
			if d.Active && (d.Limit == 0 || d.Usage < d.Limit) {
				amount := discount.Apply(d, remaining)
				discountAmount = discountAmount.Add(amount)
				remaining = remaining.Sub(amount)
				line.DiscountCode = d.Code
				appliedIDs[d.ID] = true
			}
			break
		}

		line.DiscountAmount = discountAmount.Round(2)
		line.PaymentAmount = base.Sub(discountAmount).Round(2)

		priced.Lines = append(priced.Lines, line)
		priced.TotalAmount = priced.TotalAmount.Add(base)
		priced.PaymentAmount = priced.PaymentAmount.Add(line.PaymentAmount)
		priced.TotalDiscountAmount = priced.TotalDiscountAmount.Add(line.DiscountAmount)
	}

	// General code applies once to the aggregate, capped at the remainder.
	if general != nil && general.Active && (general.Limit == 0 || general.Usage < general.Limit) {
		amount := discount.Apply(general, priced.PaymentAmount).Round(2)
		priced.PaymentAmount = priced.PaymentAmount.Sub(amount)
		priced.TotalDiscountAmount = priced.TotalDiscountAmount.Add(amount)

		detail := GeneralDiscountDetail{
			Applied:        true,
			Code:           general.Code,
			DiscountAmount: amount,
		}
		switch general.Kind.Type() {
		case discount.KindPercent:
			detail.Percent = general.Kind.Value()
		case discount.KindFixedAmount:
			detail.Amount = general.Kind.Value()
		}
		priced.GeneralDiscount = detail
		appliedIDs[general.ID] = true
	}

	priced.TotalAmount = priced.TotalAmount.Round(2)
	priced.PaymentAmount = priced.PaymentAmount.Round(2)
	priced.TotalDiscountAmount = priced.TotalDiscountAmount.Round(2)

	for id := range appliedIDs {
		priced.AppliedDiscountIDs = append(priced.AppliedDiscountIDs, id)
	}
	return priced
}

var hundred = decimal.NewFromInt(100)
