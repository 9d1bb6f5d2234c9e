package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/receipts"
	"rental-app/internal/payment"

	"go.uber.org/zap"
)

// Gateway event types the reconciler acts on. Everything else is
// acknowledged and ignored so the gateway stops retrying.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// Event is the typed envelope of a gateway notification. Parsing it is a
// hard, schema-checked step; a payload that does not decode is an error,
// not a defaulted value.
type Event struct {
	Type    string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type PaymentEntity struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Status           string            `json:"status"`
	AmountMinor      int64             `json:"amount"`
	Method           string            `json:"method"`
	Notes            map[string]string `json:"notes"`
	ErrorDescription string            `json:"error_description"`
}

// Settler is the slice of the booking state machine the reconciler drives.
// *booking.Service implements it.
type Settler interface {
	Settle(ctx context.Context, bookingID uint, paymentID string) (*bookings.Booking, *receipts.Receipt, error)
	FailFromGateway(ctx context.Context, bookingID uint, reason string) error
	GetBooking(ctx context.Context, id uint) (*bookings.Booking, error)
	GetBookingByGatewayOrder(ctx context.Context, orderID string) (*bookings.Booking, error)
}

// Reconciler replays asynchronous gateway notifications against the
// booking state machine. It runs concurrently with the synchronous
// verification path for the same booking; both use the same conditional
// transitions, so redelivery and out-of-order arrival are safe.
type Reconciler struct {
	service Settler
	gateway payment.Gateway
	logger  *zap.Logger
}

func NewReconciler(service Settler, gw payment.Gateway, logger *zap.Logger) *Reconciler {
	return &Reconciler{service: service, gateway: gw, logger: logger}
}

// HandleEvent verifies the raw payload before parsing it, then maps the
// event to a booking transition. Only signature failures should be
// surfaced to the gateway transport; callers ack everything else.
func (r *Reconciler) HandleEvent(ctx context.Context, rawBody []byte, signature string) error {
	if !r.gateway.VerifyWebhookSignature(rawBody, signature) {
		return bookings.ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("parse webhook payload: %w", err)
	}

	switch event.Type {
	case EventPaymentCaptured:
		return r.handleCaptured(ctx, event.Payload.Payment.Entity)
	case EventPaymentFailed:
		return r.handleFailed(ctx, event.Payload.Payment.Entity)
	default:
		r.logger.Info("ignoring unrecognized gateway event",
			zap.String("event", event.Type))
		return nil
	}
}

func (r *Reconciler) handleCaptured(ctx context.Context, entity PaymentEntity) error {
	bookingID, err := r.resolveBooking(ctx, entity)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) {
			r.logger.Warn("captured payment references unknown booking",
				zap.String("gateway_payment_id", entity.ID),
				zap.String("gateway_order_id", entity.OrderID))
			return nil
		}
		return err
	}

	_, _, err = r.service.Settle(ctx, bookingID, entity.ID)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotPayable) {
			// Terminal-failed booking; a capture cannot resurrect it.
			r.logger.Warn("ignoring capture for non-payable booking",
				zap.Uint("booking_id", bookingID),
				zap.String("gateway_payment_id", entity.ID))
			return nil
		}
		return err
	}

	r.logger.Info("webhook settled booking",
		zap.Uint("booking_id", bookingID),
		zap.String("gateway_payment_id", entity.ID))
	return nil
}

func (r *Reconciler) handleFailed(ctx context.Context, entity PaymentEntity) error {
	bookingID, err := r.resolveBooking(ctx, entity)
	if err != nil {
		if errors.Is(err, bookings.ErrBookingNotFound) {
			r.logger.Warn("failed payment references unknown booking",
				zap.String("gateway_payment_id", entity.ID),
				zap.String("gateway_order_id", entity.OrderID))
			return nil
		}
		return err
	}

	reason := entity.ErrorDescription
	if reason == "" {
		reason = "payment failed at gateway"
	}
	return r.service.FailFromGateway(ctx, bookingID, reason)
}

// resolveBooking extracts the booking id embedded in the order notes at
// session creation, falling back to a lookup by gateway order id.
func (r *Reconciler) resolveBooking(ctx context.Context, entity PaymentEntity) (uint, error) {
	if raw, ok := entity.Notes["booking_id"]; ok && raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid booking_id note %q: %w", raw, err)
		}
		if _, err := r.service.GetBooking(ctx, uint(id)); err != nil {
			return 0, err
		}
		return uint(id), nil
	}

	if entity.OrderID == "" {
		return 0, bookings.ErrBookingNotFound
	}
	b, err := r.service.GetBookingByGatewayOrder(ctx, entity.OrderID)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}
