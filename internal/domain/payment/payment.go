// Package payment orchestrates the order-payment state machine around an
// external gateway: checkout to a redirect URL, callback verification to a
// settled order.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no payment matches an authority token.
	ErrNotFound = errors.New("payment not found")
	// ErrAlreadyVerified rejects a duplicate verification callback.
	ErrAlreadyVerified = errors.New("payment already verified")
	// ErrUpstream marks gateway request/verify failures.
	ErrUpstream = errors.New("payment gateway failure")
)

// Payment is one settlement attempt for an order. Terminal once verified.
type Payment struct {
	ID            string
	OrderID       string
	UserID        string
	Amount        decimal.Decimal
	InvoiceNumber string
	// Authority is the gateway-assigned token, empty until a gateway
	// request is made.
	Authority string
	Verified  bool
	CreatedAt time.Time
}

// Repository defines persistence operations for payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	FindByAuthority(ctx context.Context, authority string) (*Payment, error)
	SetAuthority(ctx context.Context, paymentID, authority string) error
	// MarkVerified flips the payment to verified and its order to PAID in
	// one transaction. Returns ErrAlreadyVerified when the payment was
	// verified concurrently.
	MarkVerified(ctx context.Context, paymentID, orderID string) error
}

// Session is the gateway's answer to a payment request.
type Session struct {
	Authority   string
	RedirectURL string
}

// Request is the input to a gateway payment request.
type Request struct {
	Amount      decimal.Decimal
	Description string
	Email       string
	Mobile      string
}

// Gateway is the external payment provider boundary. Amount units and any
// currency conversion are the gateway implementation's concern.
type Gateway interface {
	RequestPayment(ctx context.Context, req Request) (*Session, error)
	// VerifyPayment confirms a callback with the gateway and returns the
	// raw gateway status code.
	VerifyPayment(ctx context.Context, authority string, amount decimal.Decimal) (int, error)
}

// OrderPaidEvent is emitted after a successful verification.
type OrderPaidEvent struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	InvoiceNumber string          `json:"invoice_number"`
	PaidAt        time.Time       `json:"paid_at"`
}

// EventPublisher publishes settlement events. Implementations are
// best-effort; failures must never abort verification.
type EventPublisher interface {
	OrderPaid(ctx context.Context, e OrderPaidEvent) error
}
