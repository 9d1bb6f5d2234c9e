package bookings

import (
	"time"

	"rental-app/internal/domain/equipment"
	"rental-app/internal/domain/users"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusPaymentFailed   Status = "payment_failed"
)

// Blocking reports whether a booking in this status reserves the
// equipment's calendar. Only blocking bookings count for overlap checks.
func (s Status) Blocking() bool {
	return s == StatusPaid || s == StatusAwaitingPayment
}

// Terminal statuses never transition again on the same row; a failed
// booking is retried as a fresh row, never resurrected.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusPaymentFailed
}

type Booking struct {
	ID uint `gorm:"primaryKey"`

	EquipmentID uint `gorm:"index:idx_bookings_equipment"`
	Equipment   equipment.Equipment

	RenterID uint `gorm:"index"`
	Renter   users.User

	// Inclusive calendar dates, UTC, normalized to day granularity.
	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`

	TotalPrice int64  `gorm:"not null"` // whole currency units
	Status     Status `gorm:"type:varchar(20);not null;default:'pending';index"`

	GatewayOrderID   *string `gorm:"uniqueIndex:idx_bookings_gateway_order"`
	GatewayPaymentID *string

	LastStatusUpdate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
