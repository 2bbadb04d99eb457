// Package discount implements discount codes: their shape, eligibility
// rules against a basket, and amount calculation.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Eligibility failures, surfaced to the caller as invalid-request errors.
var (
	ErrNotFound         = errors.New("discount code not found")
	ErrNotActive        = errors.New("discount code is not active")
	ErrCapacityFull     = errors.New("discount code capacity is full")
	ErrExpired          = errors.New("discount code is expired")
	ErrAlreadyUsed      = errors.New("discount already in basket")
	ErrSupplierConflict = errors.New("only one supplier discount per basket")
	ErrNotApplicable    = errors.New("discount not applicable to basket contents")
	ErrGeneralConflict  = errors.New("a general discount is already in basket")

	// ErrCodeExists is returned on create when the code is already taken.
	ErrCodeExists = errors.New("discount code already exists")
)

// KindType discriminates the two discount value shapes.
type KindType string

const (
	// KindPercent removes a percentage of the base amount.
	KindPercent KindType = "percent"
	// KindFixedAmount removes a fixed amount, capped at the base amount.
	KindFixedAmount KindType = "fixed_amount"
)

// Kind is a tagged variant holding exactly one discount value. Constructed
// only via Percent or FixedAmount, so the exactly-one invariant holds
// structurally.
type Kind struct {
	typ   KindType
	value decimal.Decimal
}

// Percent builds a percentage Kind.
func Percent(v decimal.Decimal) Kind {
	return Kind{typ: KindPercent, value: v}
}

// FixedAmount builds a fixed-amount Kind.
func FixedAmount(v decimal.Decimal) Kind {
	return Kind{typ: KindFixedAmount, value: v}
}

// Type returns the variant tag.
func (k Kind) Type() KindType { return k.typ }

// Value returns the percent or fixed amount, depending on Type.
func (k Kind) Value() decimal.Decimal { return k.value }

// IsZero reports whether the Kind was never set.
func (k Kind) IsZero() bool { return k.typ == "" }

// Discount is a single discount code.
type Discount struct {
	ID   string
	Code string
	Kind Kind
	// Limit caps total uses when > 0.
	Limit int
	// Usage counts consumed uses; incremented when an order carrying the
	// code materializes, not on pricing reads.
	Usage     int
	ExpiresAt *time.Time
	// SupplierID scopes the code to one supplier; empty means general.
	SupplierID string
	Active     bool
}

// General reports whether the discount is unscoped.
func (d *Discount) General() bool { return d.SupplierID == "" }

// Repository provides persistence for discount codes.
type Repository interface {
	Create(ctx context.Context, d *Discount) error
	List(ctx context.Context) ([]Discount, error)
	GetByID(ctx context.Context, id string) (*Discount, error)
	GetByIDs(ctx context.Context, ids []string) ([]Discount, error)
	FindByCode(ctx context.Context, code string) (*Discount, error)
	Delete(ctx context.Context, id string) error
}
