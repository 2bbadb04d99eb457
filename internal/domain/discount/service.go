package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrKindRequired is returned on create when the request does not carry
// exactly one of percent or amount.
var ErrKindRequired = errors.New("exactly one of percent or amount is required")

// CreateRequest holds the input for creating a discount code.
type CreateRequest struct {
	Code string
	// Exactly one of Percent and Amount must be set.
	Percent *decimal.Decimal
	Amount  *decimal.Decimal
	// ExpiresInDays sets the expiry this many days from now when > 0.
	ExpiresInDays int
	Limit         int
	SupplierID    string
}

// Service implements discount administration on top of a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a discount Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates and persists a new discount code.
// Fails with ErrKindRequired unless exactly one of percent/amount is set,
// and with ErrCodeExists when the code is already taken.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Discount, error) {
	if (req.Percent == nil) == (req.Amount == nil) {
		return nil, ErrKindRequired
	}

	var kind Kind
	if req.Percent != nil {
		kind = Percent(*req.Percent)
	} else {
		kind = FixedAmount(*req.Amount)
	}

	d := &Discount{
		ID:         uuid.New().String(),
		Code:       req.Code,
		Kind:       kind,
		Limit:      req.Limit,
		SupplierID: req.SupplierID,
		Active:     true,
	}
	if req.ExpiresInDays > 0 {
		expires := s.now().AddDate(0, 0, req.ExpiresInDays)
		d.ExpiresAt = &expires
	}

	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrCodeExists) {
			return nil, ErrCodeExists
		}
		return nil, errors.Wrap(err, "create discount")
	}
	return d, nil
}

// List returns all discount codes.
func (s *Service) List(ctx context.Context) ([]Discount, error) {
	return s.repo.List(ctx)
}

// Delete removes a discount code by ID. Fails with ErrNotFound when the
// discount does not exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
