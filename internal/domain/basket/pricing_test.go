package basket

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/food"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s: %v", want, got, msgAndArgs)
}

func TestPriceLinesFoodLevelDiscount(t *testing.T) {
	// 100 * 2 with a 10% food discount: total 200, discount 20, payment 180.
	items := []Item{{
		Food: food.Food{
			ID:         "f1",
			Name:       "Koobideh",
			Price:      dec("100"),
			Discount:   dec("10"),
			IsActive:   true,
			SupplierID: "sup-1",
		},
		Quantity: 2,
	}}

	priced := PriceLines(items, nil, nil)

	assertDec(t, "200", priced.TotalAmount)
	assertDec(t, "20", priced.TotalDiscountAmount)
	assertDec(t, "180", priced.PaymentAmount)
	require.Len(t, priced.Lines, 1)
	assertDec(t, "180", priced.Lines[0].PaymentAmount)
	assert.Empty(t, priced.AppliedDiscountIDs)
}

func TestPriceLinesInactiveFoodSkipsDiscount(t *testing.T) {
	items := []Item{{
		Food:     food.Food{ID: "f1", Price: dec("100"), Discount: dec("10"), IsActive: false},
		Quantity: 1,
	}}

	priced := PriceLines(items, nil, nil)

	assertDec(t, "100", priced.PaymentAmount)
	assertDec(t, "0", priced.TotalDiscountAmount)
}

func TestPriceLinesFixedGeneralCapped(t *testing.T) {
	// Fixed 300 against a 180 payment amount caps at 180; payment is zero,
	// never negative.
	items := []Item{{
		Food:     food.Food{ID: "f1", Price: dec("100"), Discount: dec("10"), IsActive: true, SupplierID: "sup-1"},
		Quantity: 2,
	}}
	general := &discount.Discount{
		ID:     "g1",
		Code:   "FLAT300",
		Kind:   discount.FixedAmount(dec("300")),
		Active: true,
	}

	priced := PriceLines(items, nil, general)

	assertDec(t, "0", priced.PaymentAmount)
	assertDec(t, "200", priced.TotalDiscountAmount)
	assert.True(t, priced.GeneralDiscount.Applied)
	assertDec(t, "180", priced.GeneralDiscount.DiscountAmount)
	assert.Equal(t, []string{"g1"}, priced.AppliedDiscountIDs)
}

func TestPriceLinesSupplierThenGeneral(t *testing.T) {
	// Supplier code applies per line before the general code touches the
	// aggregate. 200 base, 10% food = 180, 20% supplier = 144 per the line,
	// then 10% general on 144 = 129.6.
	items := []Item{{
		Food:     food.Food{ID: "f1", Price: dec("100"), Discount: dec("10"), IsActive: true, SupplierID: "sup-1"},
		Quantity: 2,
	}}
	supplier := []discount.Discount{{
		ID:         "s1",
		Code:       "GRILL20",
		Kind:       discount.Percent(dec("20")),
		SupplierID: "sup-1",
		Active:     true,
	}}
	general := &discount.Discount{
		ID:     "g1",
		Code:   "WELCOME10",
		Kind:   discount.Percent(dec("10")),
		Active: true,
	}

	priced := PriceLines(items, supplier, general)

	require.Len(t, priced.Lines, 1)
	assert.Equal(t, "GRILL20", priced.Lines[0].DiscountCode)
	assertDec(t, "144", priced.Lines[0].PaymentAmount)
	assertDec(t, "129.6", priced.PaymentAmount)
	assertDec(t, "70.4", priced.TotalDiscountAmount)
	assert.ElementsMatch(t, []string{"s1", "g1"}, priced.AppliedDiscountIDs)
}

func TestPriceLinesSupplierCodeScoping(t *testing.T) {
	// The supplier code only reduces lines of its own supplier.
	items := []Item{
		{Food: food.Food{ID: "f1", Name: "Kebab", Price: dec("100"), IsActive: true, SupplierID: "sup-1"}, Quantity: 1},
		{Food: food.Food{ID: "f2", Name: "Pizza", Price: dec("100"), IsActive: true, SupplierID: "sup-2"}, Quantity: 1},
	}
	supplier := []discount.Discount{{
		ID:         "s1",
		Code:       "GRILL50",
		Kind:       discount.Percent(dec("50")),
		SupplierID: "sup-1",
		Active:     true,
	}}

	priced := PriceLines(items, supplier, nil)

	require.Len(t, priced.Lines, 2)
	assertDec(t, "50", priced.Lines[0].PaymentAmount)
	assert.Equal(t, "GRILL50", priced.Lines[0].DiscountCode)
	assertDec(t, "100", priced.Lines[1].PaymentAmount)
	assert.Empty(t, priced.Lines[1].DiscountCode)
	assertDec(t, "150", priced.PaymentAmount)
}

func TestPriceLinesExhaustedCodesIgnored(t *testing.T) {
	items := []Item{{
		Food:     food.Food{ID: "f1", Price: dec("100"), IsActive: true, SupplierID: "sup-1"},
		Quantity: 1,
	}}
	supplier := []discount.Discount{{
		ID:         "s1",
		Code:       "DEAD",
		Kind:       discount.Percent(dec("50")),
		SupplierID: "sup-1",
		Active:     true,
		Limit:      3,
		Usage:      3,
	}}
	general := &discount.Discount{
		ID:     "g1",
		Code:   "OFF",
		Kind:   discount.Percent(dec("10")),
		Active: false,
	}

	priced := PriceLines(items, supplier, general)

	assertDec(t, "100", priced.PaymentAmount)
	assert.False(t, priced.GeneralDiscount.Applied)
	assert.Empty(t, priced.AppliedDiscountIDs)
}

func TestPriceLinesEmptyBasket(t *testing.T) {
	priced := PriceLines(nil, nil, &discount.Discount{
		ID:     "g1",
		Kind:   discount.Percent(dec("10")),
		Active: true,
	})

	assertDec(t, "0", priced.TotalAmount)
	assertDec(t, "0", priced.PaymentAmount)
	assert.Empty(t, priced.Lines)
}

func TestPriceLinesRounding(t *testing.T) {
	// 33.33 * 3 with 10% food discount: 99.99 base, 9.999 discount rounds
	// to 10.00, payment rounds to 89.99.
	items := []Item{{
		Food:     food.Food{ID: "f1", Price: dec("33.33"), Discount: dec("10"), IsActive: true},
		Quantity: 3,
	}}

	priced := PriceLines(items, nil, nil)

	assertDec(t, "99.99", priced.TotalAmount)
	assertDec(t, "10.00", priced.TotalDiscountAmount)
	assertDec(t, "89.99", priced.PaymentAmount)
}
