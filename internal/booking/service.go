package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-app/internal/availability"
	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/receipts"
	"rental-app/internal/payment"
	"rental-app/internal/receipt"
	"rental-app/internal/repository"

	"go.uber.org/zap"
)

// MinorUnitFactor converts whole currency units (daily rates, totals) into
// the gateway's minor unit at the adapter boundary.
const MinorUnitFactor = 100

// Service owns the booking lifecycle:
//
//	pending -> awaiting_payment -> paid | payment_failed
//
// A failed booking is never resurrected; a retry is a fresh row. Both
// settlement entry points (synchronous verification and the webhook
// reconciler) funnel into the same conditional transitions, so replays and
// races resolve to no-ops instead of duplicated side effects.
type Service struct {
	equipment repository.EquipmentRepository
	bookings  repository.BookingRepository
	engine    *availability.Engine
	gateway   payment.Gateway
	issuer    *receipt.Issuer
	logger    *zap.Logger
}

func NewService(
	equipmentRepo repository.EquipmentRepository,
	bookingRepo repository.BookingRepository,
	engine *availability.Engine,
	gw payment.Gateway,
	issuer *receipt.Issuer,
	logger *zap.Logger,
) *Service {
	return &Service{
		equipment: equipmentRepo,
		bookings:  bookingRepo,
		engine:    engine,
		gateway:   gw,
		issuer:    issuer,
		logger:    logger,
	}
}

// CreateBooking validates the request, reserves the equipment under a row
// lock and opens a payment session. The equipment lock always precedes the
// gateway call; every failure after the lock releases it again. On success
// the booking is awaiting_payment and the returned session carries what the
// client needs to complete checkout.
func (s *Service) CreateBooking(ctx context.Context, equipmentID, renterID uint, start, end time.Time) (*bookings.Booking, *payment.Session, error) {
	now := time.Now().UTC()
	if !bookings.ValidRange(start, end, now) {
		return nil, nil, bookings.ErrInvalidDateRange
	}
	start = bookings.DayStart(start)
	end = bookings.DayStart(end)

	eq, err := s.equipment.Get(ctx, equipmentID)
	if err != nil {
		return nil, nil, err
	}

	totalDays := bookings.RentalDays(start, end)
	totalPrice := eq.DailyRate * totalDays

	// Optimistic pre-check; the authoritative re-check happens inside
	// Reserve while the equipment row is locked.
	free, err := s.engine.IsAvailable(ctx, equipmentID, start, end)
	if err != nil {
		return nil, nil, err
	}
	if !free {
		return nil, nil, bookings.ErrEquipmentUnavailable
	}

	b := &bookings.Booking{
		EquipmentID: equipmentID,
		RenterID:    renterID,
		StartDate:   start,
		EndDate:     end,
		TotalPrice:  totalPrice,
	}
	if err := s.bookings.Reserve(ctx, b); err != nil {
		return nil, nil, err
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionParams{
		BookingID:   b.ID,
		AmountMinor: totalPrice * MinorUnitFactor,
		Description: fmt.Sprintf("Rental of %s, %s to %s", eq.Name, start.Format("2006-01-02"), end.Format("2006-01-02")),
	})
	if err != nil {
		s.logger.Warn("payment session creation failed, reverting reservation",
			zap.Uint("booking_id", b.ID),
			zap.Uint("equipment_id", equipmentID),
			zap.Error(err))
		s.failAndRelease(ctx, b.ID, b.EquipmentID, "session creation failed")
		if errors.Is(err, payment.ErrInvalidAmount) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", bookings.ErrPaymentSetupFailed, err)
	}

	applied, err := s.bookings.TransitionStatus(ctx, b.ID,
		[]bookings.Status{bookings.StatusPending},
		bookings.StatusAwaitingPayment,
		map[string]interface{}{"gateway_order_id": session.OrderID})
	if err != nil {
		// A reservation that cannot be recorded must not keep the
		// equipment locked.
		s.failAndRelease(ctx, b.ID, b.EquipmentID, "awaiting_payment transition failed")
		return nil, nil, fmt.Errorf("%w: %v", bookings.ErrPaymentSetupFailed, err)
	}
	if !applied {
		// The booking left pending concurrently: once the session exists,
		// a fast gateway webhook can settle or fail it before this
		// transition commits. Settlement wins; it is not a revert case.
		current, err := s.bookings.GetByID(ctx, b.ID)
		if err != nil {
			return nil, nil, err
		}
		switch current.Status {
		case bookings.StatusPaid:
			s.logger.Info("booking settled by webhook before awaiting_payment transition",
				zap.Uint("booking_id", b.ID),
				zap.String("gateway_order_id", session.OrderID))
			return current, session, nil
		case bookings.StatusPaymentFailed:
			// The webhook already failed it and released the equipment.
			return nil, nil, fmt.Errorf("%w: booking %d failed at gateway before session handoff",
				bookings.ErrPaymentSetupFailed, b.ID)
		default:
			s.failAndRelease(ctx, b.ID, b.EquipmentID, "awaiting_payment transition lost unexpectedly")
			return nil, nil, fmt.Errorf("%w: booking %d left pending state concurrently",
				bookings.ErrPaymentSetupFailed, b.ID)
		}
	}

	created, err := s.bookings.GetByID(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("booking created",
		zap.Uint("booking_id", created.ID),
		zap.Uint("equipment_id", equipmentID),
		zap.Uint("renter_id", renterID),
		zap.Int64("total_price", totalPrice),
		zap.String("gateway_order_id", session.OrderID))
	return created, session, nil
}

// VerifyAndSettle handles the client-reported payment result. An invalid
// signature changes nothing and is surfaced to the caller; a valid one runs
// the shared idempotent settle path, so calling it twice for a paid booking
// returns the same receipt.
func (s *Service) VerifyAndSettle(ctx context.Context, bookingID uint, orderID, paymentID, signature string) (*bookings.Booking, *receipts.Receipt, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if b.GatewayOrderID == nil || *b.GatewayOrderID != orderID {
		return nil, nil, bookings.ErrInvalidSignature
	}
	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		s.logger.Warn("payment signature verification failed",
			zap.Uint("booking_id", bookingID),
			zap.String("gateway_order_id", orderID))
		return nil, nil, bookings.ErrInvalidSignature
	}
	return s.Settle(ctx, bookingID, paymentID)
}

// Settle transitions the booking to paid and issues its receipt. Keyed by
// booking id and target status: settling an already-paid booking is a
// no-op that returns the existing receipt, settling a failed booking is
// rejected. The from-set accepts pending as well as awaiting_payment: a
// fast capture webhook can arrive before CreateBooking records the
// awaiting_payment transition, and that capture must win (CreateBooking
// detects the lost transition and treats the paid booking as success).
func (s *Service) Settle(ctx context.Context, bookingID uint, paymentID string) (*bookings.Booking, *receipts.Receipt, error) {
	applied, err := s.bookings.TransitionStatus(ctx, bookingID,
		[]bookings.Status{bookings.StatusAwaitingPayment, bookings.StatusPending},
		bookings.StatusPaid,
		map[string]interface{}{"gateway_payment_id": paymentID})
	if err != nil {
		return nil, nil, err
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	if !applied && b.Status != bookings.StatusPaid {
		return nil, nil, bookings.ErrBookingNotPayable
	}

	if applied {
		s.logger.Info("booking settled as paid",
			zap.Uint("booking_id", bookingID),
			zap.String("gateway_payment_id", paymentID))
	}

	rec, err := s.issuer.Issue(ctx, b)
	if err != nil {
		return b, nil, err
	}
	return b, rec, nil
}

// FailFromGateway marks the booking payment_failed and releases the
// equipment. A failure event arriving after the booking was settled as
// paid is ignored: paid is terminal and the equipment stays sold.
func (s *Service) FailFromGateway(ctx context.Context, bookingID uint, reason string) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	applied, err := s.bookings.TransitionStatus(ctx, bookingID,
		[]bookings.Status{bookings.StatusPending, bookings.StatusAwaitingPayment},
		bookings.StatusPaymentFailed, nil)
	if err != nil {
		return err
	}
	if !applied {
		if b.Status == bookings.StatusPaid {
			s.logger.Info("ignoring failure event for paid booking",
				zap.Uint("booking_id", bookingID),
				zap.String("reason", reason))
		}
		return nil
	}

	if err := s.equipment.SetAvailability(ctx, b.EquipmentID, true); err != nil {
		return fmt.Errorf("release equipment %d after failed booking %d: %w", b.EquipmentID, bookingID, err)
	}

	s.logger.Info("booking marked payment_failed",
		zap.Uint("booking_id", bookingID),
		zap.String("reason", reason))
	return nil
}

func (s *Service) GetBooking(ctx context.Context, id uint) (*bookings.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) GetBookingByGatewayOrder(ctx context.Context, orderID string) (*bookings.Booking, error) {
	return s.bookings.GetByGatewayOrderID(ctx, orderID)
}

func (s *Service) ListForRenter(ctx context.Context, renterID uint) ([]bookings.Booking, error) {
	return s.bookings.ListByRenter(ctx, renterID)
}

// failAndRelease is the critical failure-recovery path after the equipment
// lock was taken: the booking ends terminal-failed and the lock never
// leaks. Errors here are logged, not returned; the caller is already on an
// error path.
func (s *Service) failAndRelease(ctx context.Context, bookingID, equipmentID uint, reason string) {
	applied, err := s.bookings.TransitionStatus(ctx, bookingID,
		[]bookings.Status{bookings.StatusPending, bookings.StatusAwaitingPayment},
		bookings.StatusPaymentFailed, nil)
	if err != nil {
		s.logger.Error("failed to mark booking payment_failed during revert",
			zap.Uint("booking_id", bookingID), zap.Error(err))
		return
	}
	if !applied {
		// The booking reached a terminal state concurrently. If it is
		// paid, the equipment is sold and must stay locked; if it is
		// already failed, the failing path released the lock.
		s.logger.Warn("skipping equipment release, booking already terminal",
			zap.Uint("booking_id", bookingID),
			zap.String("reason", reason))
		return
	}
	if err := s.equipment.SetAvailability(ctx, equipmentID, true); err != nil {
		s.logger.Error("failed to release equipment during revert",
			zap.Uint("equipment_id", equipmentID), zap.Error(err))
	}
	s.logger.Info("reservation reverted",
		zap.Uint("booking_id", bookingID),
		zap.String("reason", reason))
}
