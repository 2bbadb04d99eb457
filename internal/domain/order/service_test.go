package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedNW/snappfood-go/internal/domain/basket"
	"github.com/saeedNW/snappfood-go/internal/domain/discount"
)

type fakeOrders struct {
	created  *Order
	consumed []string
	err      error
}

func (r *fakeOrders) Create(ctx context.Context, o *Order, consumeDiscountIDs []string) error {
	if r.err != nil {
		return r.err
	}
	r.created = o
	r.consumed = consumeDiscountIDs
	return nil
}

func (r *fakeOrders) GetByID(ctx context.Context, id string) (*Order, error) {
	if r.created != nil && r.created.ID == id {
		return r.created, nil
	}
	return nil, ErrNotFound
}

func (r *fakeOrders) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return nil, nil
}

type fakeAddresses map[string]string // addressID -> userID

func (r fakeAddresses) FindForUser(ctx context.Context, addressID, userID string) (*Address, error) {
	if owner, ok := r[addressID]; ok && owner == userID {
		return &Address{ID: addressID, UserID: userID}, nil
	}
	return nil, ErrAddressNotFound
}

func pricedFixture() *basket.PricedBasket {
	return &basket.PricedBasket{
		TotalAmount:         decimal.NewFromInt(200),
		PaymentAmount:       decimal.NewFromInt(162),
		TotalDiscountAmount: decimal.NewFromInt(38),
		Lines: []basket.PricedLine{
			{FoodID: "f1", SupplierID: "sup-1", Quantity: 2},
			{FoodID: "f2", SupplierID: "sup-2", Quantity: 1},
		},
		AppliedDiscountIDs: []string{"d1", "d2"},
	}
}

func TestCreate(t *testing.T) {
	orders := &fakeOrders{}
	svc := NewService(orders, fakeAddresses{"addr-1": "u1"})

	o, err := svc.Create(context.Background(), "u1", "addr-1", pricedFixture(), "ring the bell")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.PaymentAmount.Equal(decimal.NewFromInt(162)))
	assert.True(t, o.DiscountAmount.Equal(decimal.NewFromInt(38)))
	assert.Equal(t, "ring the bell", o.Description)
	require.Len(t, o.Lines, 2)
	for _, line := range o.Lines {
		assert.Equal(t, o.ID, line.OrderID)
		assert.Equal(t, LineStatusPending, line.Status)
		assert.NotEmpty(t, line.ID)
	}

	assert.Equal(t, []string{"d1", "d2"}, orders.consumed)
}

func TestCreateEmptyBasket(t *testing.T) {
	orders := &fakeOrders{}
	svc := NewService(orders, fakeAddresses{"addr-1": "u1"})

	priced := &basket.PricedBasket{}
	_, err := svc.Create(context.Background(), "u1", "addr-1", priced, "")
	assert.ErrorIs(t, err, ErrEmptyBasket)
	assert.Nil(t, orders.created)
}

func TestCreateAddressOwnership(t *testing.T) {
	orders := &fakeOrders{}
	svc := NewService(orders, fakeAddresses{"addr-1": "u2"})

	// addr-1 belongs to another user.
	_, err := svc.Create(context.Background(), "u1", "addr-1", pricedFixture(), "")
	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.Nil(t, orders.created)
}

func TestCreateCapacityFailurePropagates(t *testing.T) {
	orders := &fakeOrders{err: discount.ErrCapacityFull}
	svc := NewService(orders, fakeAddresses{"addr-1": "u1"})

	_, err := svc.Create(context.Background(), "u1", "addr-1", pricedFixture(), "")
	assert.ErrorIs(t, err, discount.ErrCapacityFull)
}

func TestGetByID(t *testing.T) {
	orders := &fakeOrders{}
	svc := NewService(orders, fakeAddresses{"addr-1": "u1"})

	o, err := svc.Create(context.Background(), "u1", "addr-1", pricedFixture(), "")
	require.NoError(t, err)

	got, err := svc.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
