package receipts

import (
	"time"

	"rental-app/internal/domain/bookings"
)

// Receipt is an immutable snapshot written once a booking reaches paid.
// Equipment name and dates are denormalized so the receipt stays stable
// even if the catalog record later changes. Rows are never updated.
type Receipt struct {
	ID uint `gorm:"primaryKey"`

	BookingID uint `gorm:"not null;uniqueIndex:idx_receipts_booking"`
	Booking   bookings.Booking

	ReceiptNumber string `gorm:"not null;uniqueIndex:idx_receipts_number"`

	// Amount in the gateway's minor currency unit, as confirmed by the
	// gateway's payment record.
	AmountMinor int64  `gorm:"not null"`
	Status      string `gorm:"type:varchar(20);not null"`

	GatewayPaymentID string `gorm:"not null"`
	PaymentMethod    string

	EquipmentName string
	StartDate     time.Time
	EndDate       time.Time

	CreatedAt time.Time
}
