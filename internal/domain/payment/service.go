package payment

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saeedNW/snappfood-go/internal/domain/basket"
	"github.com/saeedNW/snappfood-go/internal/domain/order"
)

// gatewayOKStatus is the status string the gateway reports on a
// successful callback.
const gatewayOKStatus = "OK"

// Pricer derives the priced snapshot of a user's basket.
type Pricer interface {
	Price(ctx context.Context, userID string) (*basket.PricedBasket, error)
}

// Orders materializes priced baskets into persisted orders.
type Orders interface {
	Create(ctx context.Context, userID, addressID string, priced *basket.PricedBasket, description string) (*order.Order, error)
}

// CheckoutRequest is the caller's input to Checkout.
type CheckoutRequest struct {
	AddressID   string
	Description string
	Email       string
	Mobile      string
}

// CheckoutResult reports either a redirect URL or a zero-amount settlement.
type CheckoutResult struct {
	// Settled is true when the order required no payment and was
	// auto-verified without a gateway round-trip.
	Settled    bool
	GatewayURL string
	OrderID    string
	PaymentID  string
}

// RedirectURLs holds the frontend destinations for callback results.
type RedirectURLs struct {
	Success string
	Failure string
}

// Service drives the payment state machine.
type Service struct {
	pricer   Pricer
	orders   Orders
	payments Repository
	gateway  Gateway
	events   EventPublisher
	urls     RedirectURLs
	now      func() time.Time
}

// NewService creates a payment Service. events may be nil when publishing
// is disabled.
func NewService(pricer Pricer, orders Orders, payments Repository, gateway Gateway, events EventPublisher, urls RedirectURLs) *Service {
	return &Service{
		pricer:   pricer,
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		events:   events,
		urls:     urls,
		now:      time.Now,
	}
}

// Checkout prices the user's basket, materializes the order, records a
// payment, and requests a gateway redirect. A zero payment amount settles
// immediately with no gateway round-trip. On gateway failure the order and
// payment rows stay pending for a later retry; nothing is retried here.
func (s *Service) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*CheckoutResult, error) {
	priced, err := s.pricer.Price(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "price basket")
	}

	o, err := s.orders.Create(ctx, userID, req.AddressID, priced, req.Description)
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:            uuid.New().String(),
		OrderID:       o.ID,
		UserID:        userID,
		Amount:        priced.PaymentAmount,
		InvoiceNumber: s.invoiceNumber(),
		Verified:      priced.PaymentAmount.IsZero(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}

	if p.Verified {
		return &CheckoutResult{Settled: true, OrderID: o.ID, PaymentID: p.ID}, nil
	}

	session, err := s.gateway.RequestPayment(ctx, Request{
		Amount:      p.Amount,
		Description: "order " + p.InvoiceNumber,
		Email:       req.Email,
		Mobile:      req.Mobile,
	})
	if err != nil {
		return nil, errors.Wrap(err, "request payment")
	}

	if err := s.payments.SetAuthority(ctx, p.ID, session.Authority); err != nil {
		return nil, errors.Wrap(err, "store authority")
	}

	return &CheckoutResult{
		GatewayURL: session.RedirectURL,
		OrderID:    o.ID,
		PaymentID:  p.ID,
	}, nil
}

// Verify handles the gateway callback. It returns the frontend URL the
// caller should redirect the user to. A duplicate callback for an already
// verified payment is a conflict, not a silent success.
func (s *Service) Verify(ctx context.Context, authority, status string) (string, error) {
	p, err := s.payments.FindByAuthority(ctx, authority)
	if err != nil {
		return "", err
	}
	if p.Verified {
		return "", ErrAlreadyVerified
	}

	if status != gatewayOKStatus {
		return s.urls.Failure, nil
	}

	if _, err := s.gateway.VerifyPayment(ctx, authority, p.Amount); err != nil {
		return "", errors.Wrap(err, "verify with gateway")
	}

	if err := s.payments.MarkVerified(ctx, p.ID, p.OrderID); err != nil {
		return "", err
	}

	s.publishPaid(ctx, p)
	return s.urls.Success, nil
}

// publishPaid emits the order-paid event best-effort.
func (s *Service) publishPaid(ctx context.Context, p *Payment) {
	if s.events == nil {
		return
	}
	e := OrderPaidEvent{
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		InvoiceNumber: p.InvoiceNumber,
		PaidAt:        s.now(),
	}
	if err := s.events.OrderPaid(ctx, e); err != nil {
		zctx.From(ctx).Warn("Publish order paid event failed",
			zap.String("order_id", p.OrderID),
			zap.Error(err),
		)
	}
}

// invoiceNumber generates a time-based invoice token.
func (s *Service) invoiceNumber() string {
	return strconv.FormatInt(s.now().UnixNano(), 10)
}
