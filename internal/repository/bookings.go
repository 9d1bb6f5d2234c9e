package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/equipment"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepository owns booking rows and the transitions between their
// statuses. Reserve is the only write that touches two tables: it performs
// the serialized check-then-lock that keeps double-booking impossible.
type BookingRepository interface {
	// Reserve atomically re-checks availability under a row lock on the
	// equipment, creates b with status pending and marks the equipment
	// unavailable. Returns bookings.ErrEquipmentNotFound or
	// bookings.ErrEquipmentUnavailable when the check fails; in that case
	// no row is created and the lock is untouched.
	Reserve(ctx context.Context, b *bookings.Booking) error

	GetByID(ctx context.Context, id uint) (*bookings.Booking, error)
	GetByGatewayOrderID(ctx context.Context, orderID string) (*bookings.Booking, error)

	// HasBlockingOverlap reports whether a paid or awaiting_payment booking
	// for the equipment overlaps the inclusive range [start,end].
	HasBlockingOverlap(ctx context.Context, equipmentID uint, start, end time.Time) (bool, error)

	// TransitionStatus moves booking id to the target status iff its current
	// status is one of from, applying extra column updates in the same
	// statement. Reports whether the transition applied. The conditional
	// WHERE is what makes settlement idempotent under racing callers.
	TransitionStatus(ctx context.Context, id uint, from []bookings.Status, to bookings.Status, updates map[string]interface{}) (bool, error)

	ListByRenter(ctx context.Context, renterID uint) ([]bookings.Booking, error)
	ListAll(ctx context.Context) ([]bookings.Booking, error)
}

type gormBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &gormBookingRepository{db: db}
}

func (r *gormBookingRepository) Reserve(ctx context.Context, b *bookings.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq equipment.Equipment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&eq, b.EquipmentID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bookings.ErrEquipmentNotFound
			}
			return fmt.Errorf("lock equipment %d: %w", b.EquipmentID, err)
		}

		if !eq.Availability {
			return bookings.ErrEquipmentUnavailable
		}

		overlap, err := hasBlockingOverlap(tx, b.EquipmentID, b.StartDate, b.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return bookings.ErrEquipmentUnavailable
		}

		b.Status = bookings.StatusPending
		b.LastStatusUpdate = time.Now().UTC()
		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		if err := tx.Model(&equipment.Equipment{}).
			Where("id = ?", b.EquipmentID).
			Update("availability", false).Error; err != nil {
			return fmt.Errorf("lock availability on equipment %d: %w", b.EquipmentID, err)
		}
		return nil
	})
}

func hasBlockingOverlap(tx *gorm.DB, equipmentID uint, start, end time.Time) (bool, error) {
	rangeStart := bookings.DayStart(start)
	rangeEnd := bookings.DayEnd(end)

	var count int64
	err := tx.Model(&bookings.Booking{}).
		Where("equipment_id = ?", equipmentID).
		Where("status IN ?", []bookings.Status{bookings.StatusPaid, bookings.StatusAwaitingPayment}).
		Where("start_date <= ? AND ? <= end_date", rangeEnd, rangeStart).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count overlapping bookings for equipment %d: %w", equipmentID, err)
	}
	return count > 0, nil
}

func (r *gormBookingRepository) GetByID(ctx context.Context, id uint) (*bookings.Booking, error) {
	var b bookings.Booking
	if err := r.db.WithContext(ctx).Preload("Equipment").First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookings.ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking %d: %w", id, err)
	}
	return &b, nil
}

func (r *gormBookingRepository) GetByGatewayOrderID(ctx context.Context, orderID string) (*bookings.Booking, error) {
	var b bookings.Booking
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("gateway_order_id = ?", orderID).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookings.ErrBookingNotFound
		}
		return nil, fmt.Errorf("load booking by gateway order %q: %w", orderID, err)
	}
	return &b, nil
}

func (r *gormBookingRepository) HasBlockingOverlap(ctx context.Context, equipmentID uint, start, end time.Time) (bool, error) {
	return hasBlockingOverlap(r.db.WithContext(ctx), equipmentID, start, end)
}

func (r *gormBookingRepository) TransitionStatus(ctx context.Context, id uint, from []bookings.Status, to bookings.Status, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{
		"status":             to,
		"last_status_update": time.Now().UTC(),
	}
	for k, v := range updates {
		values[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&bookings.Booking{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("transition booking %d to %s: %w", id, to, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormBookingRepository) ListByRenter(ctx context.Context, renterID uint) ([]bookings.Booking, error) {
	var list []bookings.Booking
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("renter_id = ?", renterID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings for renter %d: %w", renterID, err)
	}
	return list, nil
}

func (r *gormBookingRepository) ListAll(ctx context.Context) ([]bookings.Booking, error) {
	var list []bookings.Booking
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Preload("Renter").
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return list, nil
}
