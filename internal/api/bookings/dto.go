package bookings

import (
	"time"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/receipts"
	"rental-app/internal/payment"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	EquipmentID uint   `json:"equipment_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type VerifyPaymentRequest struct {
	BookingID        uint   `json:"booking_id"`
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

type BookingDTO struct {
	ID               uint      `json:"id"`
	EquipmentID      uint      `json:"equipment_id"`
	EquipmentName    string    `json:"equipment_name,omitempty"`
	RenterID         uint      `json:"renter_id"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	TotalPrice       int64     `json:"total_price"`
	Status           string    `json:"status"`
	GatewayOrderID   *string   `json:"gateway_order_id,omitempty"`
	LastStatusUpdate time.Time `json:"last_status_update"`
	CreatedAt        time.Time `json:"created_at"`
}

type ReceiptDTO struct {
	ID               uint      `json:"id"`
	BookingID        uint      `json:"booking_id"`
	ReceiptNumber    string    `json:"receipt_number"`
	AmountMinor      int64     `json:"amount"`
	Status           string    `json:"status"`
	GatewayPaymentID string    `json:"gateway_payment_id"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	EquipmentName    string    `json:"equipment_name"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	CreatedAt        time.Time `json:"created_at"`
}

type CreateBookingResponse struct {
	Booking  BookingDTO       `json:"booking"`
	Checkout *payment.Session `json:"checkout"`
}

type VerifyPaymentResponse struct {
	Booking BookingDTO `json:"booking"`
	Receipt ReceiptDTO `json:"receipt"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func toBookingDTO(b *bookings.Booking) BookingDTO {
	return BookingDTO{
		ID:               b.ID,
		EquipmentID:      b.EquipmentID,
		EquipmentName:    b.Equipment.Name,
		RenterID:         b.RenterID,
		StartDate:        b.StartDate.Format(dateLayout),
		EndDate:          b.EndDate.Format(dateLayout),
		TotalPrice:       b.TotalPrice,
		Status:           string(b.Status),
		GatewayOrderID:   b.GatewayOrderID,
		LastStatusUpdate: b.LastStatusUpdate,
		CreatedAt:        b.CreatedAt,
	}
}

func toReceiptDTO(r *receipts.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:               r.ID,
		BookingID:        r.BookingID,
		ReceiptNumber:    r.ReceiptNumber,
		AmountMinor:      r.AmountMinor,
		Status:           r.Status,
		GatewayPaymentID: r.GatewayPaymentID,
		PaymentMethod:    r.PaymentMethod,
		EquipmentName:    r.EquipmentName,
		StartDate:        r.StartDate.Format(dateLayout),
		EndDate:          r.EndDate.Format(dateLayout),
		CreatedAt:        r.CreatedAt,
	}
}
