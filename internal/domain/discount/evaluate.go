package discount

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BasketContext describes the discount codes already applied to a basket
// and which suppliers its food lines belong to. It is everything Evaluate
// needs to decide whether one more code may join.
type BasketContext struct {
	// AppliedDiscountIDs holds the IDs of codes already in the basket.
	AppliedDiscountIDs []string
	// AppliedSupplierIDs holds the supplier scope of each applied
	// supplier-scoped code.
	AppliedSupplierIDs []string
	// HasGeneral reports whether an unscoped code is already applied.
	HasGeneral bool
	// ItemSupplierIDs holds the suppliers of the basket's food lines.
	ItemSupplierIDs []string
}

// Evaluate decides whether d may be added to the basket described by bc.
// Checks run in a fixed order and the first failure wins.
func Evaluate(d *Discount, bc BasketContext, now time.Time) error {
	if d == nil || !d.Active {
		return ErrNotActive
	}
	if d.Limit > 0 && d.Usage >= d.Limit {
		return ErrCapacityFull
	}
	if d.ExpiresAt != nil && !d.ExpiresAt.After(now) {
		return ErrExpired
	}
	for _, id := range bc.AppliedDiscountIDs {
		if id == d.ID {
			return ErrAlreadyUsed
		}
	}
	if !d.General() {
		if len(bc.AppliedSupplierIDs) > 0 {
			return ErrSupplierConflict
		}
		if !contains(bc.ItemSupplierIDs, d.SupplierID) {
			return ErrNotApplicable
		}
		return nil
	}
	if bc.HasGeneral {
		return ErrGeneralConflict
	}
	return nil
}

// Apply computes the amount d removes from base. The result is never
// negative and never exceeds base.
func Apply(d *Discount, base decimal.Decimal) decimal.Decimal {
	if base.IsNegative() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch d.Kind.Type() {
	case KindPercent:
		amount = base.Mul(d.Kind.Value()).Div(hundred)
	case KindFixedAmount:
		amount = d.Kind.Value()
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, base)
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
