package receipt

import (
	"context"
	"errors"
	"fmt"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/receipts"
	"rental-app/internal/payment"
	"rental-app/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Issuer creates the immutable payment record for a paid booking. Exactly
// one receipt exists per booking; a second issue call returns the first
// receipt unchanged, which is what lets the synchronous verification path
// and the webhook path race safely.
type Issuer struct {
	receipts  repository.ReceiptRepository
	equipment repository.EquipmentRepository
	gateway   payment.Gateway
	logger    *zap.Logger
}

func NewIssuer(receiptRepo repository.ReceiptRepository, equipmentRepo repository.EquipmentRepository, gw payment.Gateway, logger *zap.Logger) *Issuer {
	return &Issuer{
		receipts:  receiptRepo,
		equipment: equipmentRepo,
		gateway:   gw,
		logger:    logger,
	}
}

// Issue returns the booking's receipt, creating it on first call.
// Precondition: the booking is paid with a gateway payment id assigned.
func (i *Issuer) Issue(ctx context.Context, b *bookings.Booking) (*receipts.Receipt, error) {
	if b.Status != bookings.StatusPaid {
		return nil, fmt.Errorf("issue receipt for booking %d: status is %s, not paid", b.ID, b.Status)
	}
	if b.GatewayPaymentID == nil || *b.GatewayPaymentID == "" {
		return nil, fmt.Errorf("issue receipt for booking %d: no gateway payment id", b.ID)
	}

	existing, err := i.receipts.GetByBookingID(ctx, b.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, bookings.ErrReceiptNotFound) {
		return nil, err
	}

	record, err := i.gateway.FetchPayment(ctx, *b.GatewayPaymentID)
	if err != nil {
		return nil, fmt.Errorf("issue receipt for booking %d: %w", b.ID, err)
	}

	equipmentName := b.Equipment.Name
	if equipmentName == "" {
		if eq, err := i.equipment.Get(ctx, b.EquipmentID); err == nil {
			equipmentName = eq.Name
		}
	}

	rec := &receipts.Receipt{
		BookingID:        b.ID,
		ReceiptNumber:    uuid.NewString(),
		AmountMinor:      record.AmountMinor,
		Status:           payment.NormalizeStatus(record.Status),
		GatewayPaymentID: record.ID,
		PaymentMethod:    record.Method,
		EquipmentName:    equipmentName,
		StartDate:        b.StartDate,
		EndDate:          b.EndDate,
	}

	if err := i.receipts.Create(ctx, rec); err != nil {
		// Lost the race against the other settlement path; theirs wins.
		if errors.Is(err, repository.ErrDuplicateReceipt) {
			i.logger.Info("receipt already issued by concurrent settlement",
				zap.Uint("booking_id", b.ID))
			return i.receipts.GetByBookingID(ctx, b.ID)
		}
		return nil, err
	}

	i.logger.Info("receipt issued",
		zap.Uint("booking_id", b.ID),
		zap.String("receipt_number", rec.ReceiptNumber),
		zap.Int64("amount_minor", rec.AmountMinor))
	return rec, nil
}
