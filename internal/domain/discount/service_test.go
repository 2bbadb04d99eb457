package discount

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory Repository for service tests.
type memoryRepo struct {
	byID   map[string]*Discount
	byCode map[string]*Discount
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		byID:   make(map[string]*Discount),
		byCode: make(map[string]*Discount),
	}
}

func (r *memoryRepo) Create(ctx context.Context, d *Discount) error {
	if _, ok := r.byCode[d.Code]; ok {
		return ErrCodeExists
	}
	cp := *d
	r.byID[d.ID] = &cp
	r.byCode[d.Code] = &cp
	return nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Discount, error) {
	out := make([]Discount, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, *d)
	}
	return out, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (*Discount, error) {
	d, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memoryRepo) GetByIDs(ctx context.Context, ids []string) ([]Discount, error) {
	var out []Discount
	for _, id := range ids {
		if d, ok := r.byID[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindByCode(ctx context.Context, code string) (*Discount, error) {
	d, ok := r.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id string) error {
	if d, ok := r.byID[id]; ok {
		delete(r.byCode, d.Code)
		delete(r.byID, id)
	}
	return nil
}

func TestServiceCreatePercent(t *testing.T) {
	svc := NewService(newMemoryRepo())
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	percent := decimal.NewFromInt(15)
	d, err := svc.Create(context.Background(), CreateRequest{
		Code:          "SUMMER15",
		Percent:       &percent,
		ExpiresInDays: 7,
		Limit:         100,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, KindPercent, d.Kind.Type())
	assert.True(t, d.Kind.Value().Equal(percent))
	assert.True(t, d.Active)
	require.NotNil(t, d.ExpiresAt)
	assert.Equal(t, fixed.AddDate(0, 0, 7), *d.ExpiresAt)
}

func TestServiceCreateNoExpiry(t *testing.T) {
	svc := NewService(newMemoryRepo())

	amount := decimal.NewFromInt(50000)
	d, err := svc.Create(context.Background(), CreateRequest{Code: "FLAT", Amount: &amount})
	require.NoError(t, err)

	assert.Nil(t, d.ExpiresAt)
	assert.Equal(t, KindFixedAmount, d.Kind.Type())
}

func TestServiceCreateKindRequired(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Code: "NONE"})
	assert.ErrorIs(t, err, ErrKindRequired)

	percent := decimal.NewFromInt(10)
	amount := decimal.NewFromInt(100)
	_, err = svc.Create(ctx, CreateRequest{Code: "BOTH", Percent: &percent, Amount: &amount})
	assert.ErrorIs(t, err, ErrKindRequired)
}

func TestServiceCreateDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	percent := decimal.NewFromInt(10)
	_, err := svc.Create(ctx, CreateRequest{Code: "TAKEN", Percent: &percent})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateRequest{Code: "TAKEN", Percent: &percent})
	assert.ErrorIs(t, err, ErrCodeExists)
}

func TestServiceDelete(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	percent := decimal.NewFromInt(10)
	d, err := svc.Create(ctx, CreateRequest{Code: "GONE", Percent: &percent})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.ErrorIs(t, svc.Delete(ctx, d.ID), ErrNotFound)
}
