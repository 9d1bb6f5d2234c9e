package admin

import (
	"net/http"

	"rental-app/internal/repository"

	"github.com/gin-gonic/gin"
)

type AdminBooking struct {
	ID            uint    `json:"id"`
	EquipmentName string  `json:"equipment_name"`
	RenterEmail   string  `json:"renter_email"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalPrice    int64   `json:"total_price"`
	Status        string  `json:"status"`
	GatewayOrder  *string `json:"gateway_order_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type AdminReceipt struct {
	ID            uint   `json:"id"`
	BookingID     uint   `json:"booking_id"`
	ReceiptNumber string `json:"receipt_number"`
	AmountMinor   int64  `json:"amount"`
	Status        string `json:"status"`
	EquipmentName string `json:"equipment_name"`
	CreatedAt     string `json:"created_at"`
}

type Handler struct {
	bookings repository.BookingRepository
	receipts repository.ReceiptRepository
}

func NewHandler(bookingRepo repository.BookingRepository, receiptRepo repository.ReceiptRepository) *Handler {
	return &Handler{bookings: bookingRepo, receipts: receiptRepo}
}

func (h *Handler) ListAllBookings(c *gin.Context) {
	list, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load bookings", "code": "internal_error"})
		return
	}

	out := make([]AdminBooking, 0, len(list))
	for _, b := range list {
		out = append(out, AdminBooking{
			ID:            b.ID,
			EquipmentName: b.Equipment.Name,
			RenterEmail:   b.Renter.Email,
			StartDate:     b.StartDate.Format("2006-01-02"),
			EndDate:       b.EndDate.Format("2006-01-02"),
			TotalPrice:    b.TotalPrice,
			Status:        string(b.Status),
			GatewayOrder:  b.GatewayOrderID,
			CreatedAt:     b.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) ListAllReceipts(c *gin.Context) {
	list, err := h.receipts.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load receipts", "code": "internal_error"})
		return
	}

	out := make([]AdminReceipt, 0, len(list))
	for _, r := range list {
		out = append(out, AdminReceipt{
			ID:            r.ID,
			BookingID:     r.BookingID,
			ReceiptNumber: r.ReceiptNumber,
			AmountMinor:   r.AmountMinor,
			Status:        r.Status,
			EquipmentName: r.EquipmentName,
			CreatedAt:     r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	c.JSON(http.StatusOK, out)
}
