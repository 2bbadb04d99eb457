// Package zarinpal implements the payment.Gateway contract against the
// Zarinpal REST API.
package zarinpal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/saeedNW/snappfood-go/internal/domain/payment"
)

// Gateway status codes. 100 is success; 101 is a repeat verification of an
// already settled transaction.
const (
	codeOK              = 100
	codeAlreadyVerified = 101
)

var ten = decimal.NewFromInt(10)

var _ payment.Gateway = (*Client)(nil)

// Config holds the gateway endpoints and merchant credentials.
type Config struct {
	MerchantID string
	RequestURL string
	VerifyURL  string
	// PayURL is the base the user is redirected to; the authority token is
	// appended as the last path segment.
	PayURL      string
	CallbackURL string
	Timeout     time.Duration
}

// Client is an HTTP client for the Zarinpal payment gateway. Amounts are
// accepted in Toman and sent in Rial (a fixed 10x conversion).
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client with an instrumented transport.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// RequestPayment asks the gateway for a payment session. A response is
// valid only when it carries code 100 and a non-empty authority.
func (c *Client) RequestPayment(ctx context.Context, req payment.Request) (*payment.Session, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("merchant_id", func(e *jx.Encoder) { e.Str(c.cfg.MerchantID) })
		e.Field("amount", func(e *jx.Encoder) { e.Int64(toRial(req.Amount)) })
		e.Field("description", func(e *jx.Encoder) { e.Str(req.Description) })
		e.Field("callback_url", func(e *jx.Encoder) { e.Str(c.cfg.CallbackURL) })
		e.Field("metadata", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("email", func(e *jx.Encoder) { e.Str(req.Email) })
				e.Field("mobile", func(e *jx.Encoder) { e.Str(req.Mobile) })
			})
		})
	})

	body, err := c.post(ctx, c.cfg.RequestURL, e.Bytes())
	if err != nil {
		return nil, err
	}

	code, authority, err := parseData(body)
	if err != nil {
		return nil, errors.Wrap(payment.ErrUpstream, err.Error())
	}
	if code != codeOK || authority == "" {
		return nil, errors.Wrapf(payment.ErrUpstream, "gateway request rejected with code %d", code)
	}

	return &payment.Session{
		Authority:   authority,
		RedirectURL: c.cfg.PayURL + "/" + authority,
	}, nil
}

// VerifyPayment confirms a transaction with the gateway and returns the
// raw gateway code. Any code other than verified/already-verified is an
// upstream failure.
func (c *Client) VerifyPayment(ctx context.Context, authority string, amount decimal.Decimal) (int, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("merchant_id", func(e *jx.Encoder) { e.Str(c.cfg.MerchantID) })
		e.Field("amount", func(e *jx.Encoder) { e.Int64(toRial(amount)) })
		e.Field("authority", func(e *jx.Encoder) { e.Str(authority) })
	})

	body, err := c.post(ctx, c.cfg.VerifyURL, e.Bytes())
	if err != nil {
		return 0, err
	}

	code, _, err := parseData(body)
	if err != nil {
		return 0, errors.Wrap(payment.ErrUpstream, err.Error())
	}
	if code != codeOK && code != codeAlreadyVerified {
		return code, errors.Wrapf(payment.ErrUpstream, "gateway verify rejected with code %d", code)
	}
	return code, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(payment.ErrUpstream, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(payment.ErrUpstream, err.Error())
	}
	return data, nil
}

// parseData extracts data.code and data.authority from a gateway response
// envelope, skipping everything else.
func parseData(body []byte) (code int, authority string, err error) {
	d := jx.DecodeBytes(body)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "data" {
			return d.Skip()
		}
		if d.Next() != jx.Object {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "code":
				v, err := d.Int()
				if err != nil {
					return err
				}
				code = v
				return nil
			case "authority":
				v, err := d.Str()
				if err != nil {
					return err
				}
				authority = v
				return nil
			default:
				return d.Skip()
			}
		})
	})
	if err != nil {
		return 0, "", errors.Wrap(err, "malformed gateway response")
	}
	return code, authority, nil
}

// toRial converts a Toman amount to integer Rial.
func toRial(amount decimal.Decimal) int64 {
	return amount.Mul(ten).IntPart()
}
