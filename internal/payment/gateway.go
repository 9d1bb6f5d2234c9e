package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// ErrGateway marks transport-level failures (network errors, timeouts,
// gateway 5xx, malformed gateway payloads). The booking service recovers
// from these with the revert path; validation errors are reported as-is.
var ErrGateway = errors.New("payment gateway error")

// ErrInvalidAmount rejects non-positive session amounts before any network
// call is made.
var ErrInvalidAmount = errors.New("session amount must be a positive integer")

// SessionParams describes the payment session to open for a booking.
// AmountMinor is in the gateway's minor currency unit.
type SessionParams struct {
	BookingID   uint
	AmountMinor int64
	Currency    string
	Description string
}

// Session is the opaque handle the client needs to complete checkout.
type Session struct {
	OrderID     string `json:"order_id"`
	KeyID       string `json:"key_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// PaymentRecord is the authoritative payment state fetched from the
// gateway, decoded into a typed value at the boundary. A record the
// gateway returns in an unexpected shape is a hard error, never a
// silently-defaulted value.
type PaymentRecord struct {
	ID          string
	OrderID     string
	Status      string
	Method      string
	AmountMinor int64
	CreatedAt   time.Time
}

// Gateway is the adapter the booking core talks to. Signature checks are
// pure crypto; CreateSession and FetchPayment hit the network and are
// bounded by the configured timeout.
type Gateway interface {
	CreateSession(ctx context.Context, p SessionParams) (*Session, error)
	VerifySignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	FetchPayment(ctx context.Context, paymentID string) (*PaymentRecord, error)
}

type RazorpayGateway struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
	timeout       time.Duration
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret string, timeout time.Duration) *RazorpayGateway {
	return &RazorpayGateway{
		client:        razorpay.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		timeout:       timeout,
	}
}

func (g *RazorpayGateway) CreateSession(ctx context.Context, p SessionParams) (*Session, error) {
	if p.AmountMinor <= 0 {
		return nil, ErrInvalidAmount
	}
	currency := p.Currency
	if currency == "" {
		currency = "INR"
	}

	data := map[string]interface{}{
		"amount":   p.AmountMinor,
		"currency": currency,
		"receipt":  fmt.Sprintf("booking_%d", p.BookingID),
		"notes": map[string]interface{}{
			"booking_id":  strconv.FormatUint(uint64(p.BookingID), 10),
			"description": p.Description,
		},
	}

	body, err := g.call(ctx, func() (map[string]interface{}, error) {
		return g.client.Order.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}

	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("%w: order response missing id", ErrGateway)
	}

	return &Session{
		OrderID:     orderID,
		KeyID:       g.keyID,
		AmountMinor: p.AmountMinor,
		Currency:    currency,
	}, nil
}

// VerifySignature recomputes the HMAC-SHA256 over "orderID|paymentID" with
// the key secret and compares in constant time (hmac.Equal inside the SDK
// util).
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}, signature, g.keySecret)
}

// VerifyWebhookSignature checks the HMAC over the raw webhook body. The
// webhook secret is distinct from the order/payment signing secret.
func (g *RazorpayGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if len(body) == 0 || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret)
}

func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: empty payment id", ErrGateway)
	}

	body, err := g.call(ctx, func() (map[string]interface{}, error) {
		return g.client.Payment.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		return nil, err
	}
	return decodePaymentRecord(body)
}

func decodePaymentRecord(body map[string]interface{}) (*PaymentRecord, error) {
	rec := &PaymentRecord{}

	var ok bool
	if rec.ID, ok = body["id"].(string); !ok || rec.ID == "" {
		return nil, fmt.Errorf("%w: payment response missing id", ErrGateway)
	}
	if rec.OrderID, ok = body["order_id"].(string); !ok {
		return nil, fmt.Errorf("%w: payment %s missing order_id", ErrGateway, rec.ID)
	}
	if rec.Status, ok = body["status"].(string); !ok || rec.Status == "" {
		return nil, fmt.Errorf("%w: payment %s missing status", ErrGateway, rec.ID)
	}

	amount, ok := body["amount"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: payment %s missing amount", ErrGateway, rec.ID)
	}
	rec.AmountMinor = int64(amount)

	// method can legitimately be absent on failed payments
	rec.Method, _ = body["method"].(string)

	if createdAt, ok := body["created_at"].(float64); ok {
		rec.CreatedAt = time.Unix(int64(createdAt), 0).UTC()
	}

	return rec, nil
}

// call runs fn bounded by the gateway timeout. The SDK's requests carry no
// context, so a deadline abandons the in-flight call; a timed-out session
// creation is treated as a gateway failure upstream.
func (g *RazorpayGateway) call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		body map[string]interface{}
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		body, err := fn()
		ch <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrGateway, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGateway, r.err)
		}
		return r.body, nil
	}
}
