package basket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/food"
)

// memoryBaskets is an in-memory basket Repository.
type memoryBaskets struct {
	lines map[string]*Line
}

func newMemoryBaskets() *memoryBaskets {
	return &memoryBaskets{lines: make(map[string]*Line)}
}

func (r *memoryBaskets) ListByUser(ctx context.Context, userID string) ([]Line, error) {
	var out []Line
	for _, l := range r.lines {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memoryBaskets) FindItem(ctx context.Context, userID, foodID string) (*Line, error) {
	for _, l := range r.lines {
		if l.UserID == userID && l.FoodID == foodID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryBaskets) Insert(ctx context.Context, line *Line) error {
	cp := *line
	r.lines[line.ID] = &cp
	return nil
}

func (r *memoryBaskets) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	r.lines[lineID].Quantity = quantity
	return nil
}

func (r *memoryBaskets) Delete(ctx context.Context, lineID string) error {
	delete(r.lines, lineID)
	return nil
}

func (r *memoryBaskets) Clear(ctx context.Context, userID string) error {
	for id, l := range r.lines {
		if l.UserID == userID {
			delete(r.lines, id)
		}
	}
	return nil
}

// staticFoods serves a fixed catalog.
type staticFoods map[string]food.Food

func (r staticFoods) List(ctx context.Context) ([]food.Food, error) {
	var out []food.Food
	for _, f := range r {
		out = append(out, f)
	}
	return out, nil
}

func (r staticFoods) GetByID(ctx context.Context, id string) (*food.Food, error) {
	f, ok := r[id]
	if !ok {
		return nil, food.ErrNotFound
	}
	return &f, nil
}

func (r staticFoods) GetByIDs(ctx context.Context, ids []string) ([]food.Food, error) {
	var out []food.Food
	for _, id := range ids {
		if f, ok := r[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// staticDiscounts serves fixed discount codes.
type staticDiscounts map[string]discount.Discount

func (r staticDiscounts) Create(ctx context.Context, d *discount.Discount) error { return nil }
func (r staticDiscounts) List(ctx context.Context) ([]discount.Discount, error)  { return nil, nil }
func (r staticDiscounts) Delete(ctx context.Context, id string) error            { return nil }

func (r staticDiscounts) GetByID(ctx context.Context, id string) (*discount.Discount, error) {
	for _, d := range r {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, discount.ErrNotFound
}

func (r staticDiscounts) GetByIDs(ctx context.Context, ids []string) ([]discount.Discount, error) {
	var out []discount.Discount
	for _, id := range ids {
		for _, d := range r {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (r staticDiscounts) FindByCode(ctx context.Context, code string) (*discount.Discount, error) {
	d, ok := r[code]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return &d, nil
}

func testService(foods staticFoods, discounts staticDiscounts) (*Service, *memoryBaskets) {
	baskets := newMemoryBaskets()
	svc := NewService(baskets, foods, discounts)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return svc, baskets
}

var testCatalog = staticFoods{
	"f1": {ID: "f1", Name: "Kebab", Price: dec("100"), IsActive: true, SupplierID: "sup-1"},
	"f2": {ID: "f2", Name: "Pizza", Price: dec("120"), IsActive: true, SupplierID: "sup-2"},
}

func TestAddItem(t *testing.T) {
	svc, baskets := testService(testCatalog, staticDiscounts{})
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))

	line, err := baskets.FindItem(ctx, "u1", "f1")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, 2, line.Quantity)
}

func TestAddItemUnknownFood(t *testing.T) {
	svc, _ := testService(testCatalog, staticDiscounts{})
	assert.ErrorIs(t, svc.AddItem(context.Background(), "u1", "missing"), food.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, baskets := testService(testCatalog, staticDiscounts{})
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))

	require.NoError(t, svc.RemoveItem(ctx, "u1", "f1"))
	line, err := baskets.FindItem(ctx, "u1", "f1")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, 1, line.Quantity)

	// Last unit deletes the line.
	require.NoError(t, svc.RemoveItem(ctx, "u1", "f1"))
	line, err = baskets.FindItem(ctx, "u1", "f1")
	require.NoError(t, err)
	assert.Nil(t, line)

	assert.ErrorIs(t, svc.RemoveItem(ctx, "u1", "f1"), ErrItemNotFound)
}

func TestAddDiscountSupplier(t *testing.T) {
	discounts := staticDiscounts{
		"GRILL20": {ID: "s1", Code: "GRILL20", Kind: discount.Percent(dec("20")), SupplierID: "sup-1", Active: true},
	}
	svc, baskets := testService(testCatalog, discounts)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddDiscount(ctx, "u1", "GRILL20"))

	lines, err := baskets.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestAddDiscountSupplierNotInBasket(t *testing.T) {
	discounts := staticDiscounts{
		"GRILL20": {ID: "s1", Code: "GRILL20", Kind: discount.Percent(dec("20")), SupplierID: "sup-1", Active: true},
	}
	svc, baskets := testService(testCatalog, discounts)
	ctx := context.Background()

	// Basket holds only supplier 2 items.
	require.NoError(t, svc.AddItem(ctx, "u1", "f2"))
	assert.ErrorIs(t, svc.AddDiscount(ctx, "u1", "GRILL20"), discount.ErrNotApplicable)

	lines, err := baskets.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1, "rejected code must not change the basket")
}

func TestAddDiscountSecondSupplierRejected(t *testing.T) {
	discounts := staticDiscounts{
		"GRILL20": {ID: "s1", Code: "GRILL20", Kind: discount.Percent(dec("20")), SupplierID: "sup-1", Active: true},
		"PIZZA10": {ID: "s2", Code: "PIZZA10", Kind: discount.Percent(dec("10")), SupplierID: "sup-2", Active: true},
	}
	svc, _ := testService(testCatalog, discounts)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddItem(ctx, "u1", "f2"))
	require.NoError(t, svc.AddDiscount(ctx, "u1", "GRILL20"))

	assert.ErrorIs(t, svc.AddDiscount(ctx, "u1", "PIZZA10"), discount.ErrSupplierConflict)
}

func TestAddDiscountSecondGeneralRejected(t *testing.T) {
	discounts := staticDiscounts{
		"WELCOME10": {ID: "g1", Code: "WELCOME10", Kind: discount.Percent(dec("10")), Active: true},
		"SUMMER15":  {ID: "g2", Code: "SUMMER15", Kind: discount.Percent(dec("15")), Active: true},
	}
	svc, _ := testService(testCatalog, discounts)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddDiscount(ctx, "u1", "WELCOME10"))

	assert.ErrorIs(t, svc.AddDiscount(ctx, "u1", "SUMMER15"), discount.ErrGeneralConflict)
	// Re-adding the same code reports already-used before the general conflict.
	assert.ErrorIs(t, svc.AddDiscount(ctx, "u1", "WELCOME10"), discount.ErrAlreadyUsed)
}

func TestAddDiscountUnknownCode(t *testing.T) {
	svc, _ := testService(testCatalog, staticDiscounts{})
	assert.ErrorIs(t, svc.AddDiscount(context.Background(), "u1", "NOPE"), discount.ErrNotFound)
}

func TestRemoveDiscount(t *testing.T) {
	discounts := staticDiscounts{
		"WELCOME10": {ID: "g1", Code: "WELCOME10", Kind: discount.Percent(dec("10")), Active: true},
	}
	svc, baskets := testService(testCatalog, discounts)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddDiscount(ctx, "u1", "WELCOME10"))
	require.NoError(t, svc.RemoveDiscount(ctx, "u1", "WELCOME10"))

	lines, err := baskets.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	assert.ErrorIs(t, svc.RemoveDiscount(ctx, "u1", "WELCOME10"), ErrDiscountNotInBasket)
}

func TestClear(t *testing.T) {
	svc, baskets := testService(testCatalog, staticDiscounts{})
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddItem(ctx, "u1", "f2"))
	require.NoError(t, svc.AddItem(ctx, "u2", "f1"))

	require.NoError(t, svc.Clear(ctx, "u1"))

	lines, err := baskets.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = baskets.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, lines, 1, "other users' baskets untouched")
}

func TestPriceEndToEnd(t *testing.T) {
	discounts := staticDiscounts{
		"WELCOME10": {ID: "g1", Code: "WELCOME10", Kind: discount.Percent(dec("10")), Active: true},
	}
	svc, _ := testService(testCatalog, discounts)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddItem(ctx, "u1", "f1"))
	require.NoError(t, svc.AddDiscount(ctx, "u1", "WELCOME10"))

	priced, err := svc.Price(ctx, "u1")
	require.NoError(t, err)

	assertDec(t, "200", priced.TotalAmount)
	assertDec(t, "180", priced.PaymentAmount)
	assert.True(t, priced.GeneralDiscount.Applied)
	assert.Equal(t, []string{"g1"}, priced.AppliedDiscountIDs)
}
