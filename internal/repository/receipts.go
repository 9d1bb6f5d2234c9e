package repository

import (
	"context"
	"errors"
	"fmt"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/receipts"

	"gorm.io/gorm"
)

// ReceiptRepository persists the immutable receipt rows. There is no update
// method on purpose.
type ReceiptRepository interface {
	Create(ctx context.Context, rec *receipts.Receipt) error
	GetByBookingID(ctx context.Context, bookingID uint) (*receipts.Receipt, error)
	ListAll(ctx context.Context) ([]receipts.Receipt, error)
}

// ErrDuplicateReceipt is returned when a receipt already exists for the
// booking (unique index on booking_id). Callers resolve it by re-reading.
var ErrDuplicateReceipt = errors.New("receipt already exists for booking")

type gormReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &gormReceiptRepository{db: db}
}

func (r *gormReceiptRepository) Create(ctx context.Context, rec *receipts.Receipt) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReceipt
		}
		return fmt.Errorf("create receipt for booking %d: %w", rec.BookingID, err)
	}
	return nil
}

func (r *gormReceiptRepository) GetByBookingID(ctx context.Context, bookingID uint) (*receipts.Receipt, error) {
	var rec receipts.Receipt
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookings.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("load receipt for booking %d: %w", bookingID, err)
	}
	return &rec, nil
}

func (r *gormReceiptRepository) ListAll(ctx context.Context) ([]receipts.Receipt, error) {
	var list []receipts.Receipt
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return list, nil
}
