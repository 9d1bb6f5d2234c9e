package bookings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rental-app/internal/availability"
	"rental-app/internal/booking"
	domain "rental-app/internal/domain/bookings"
	"rental-app/internal/payment"
	"rental-app/internal/repository"

	"github.com/gin-gonic/gin"
)

// defaultLookaheadDays is the availability window used when the caller
// omits dates.
const defaultLookaheadDays = 30

type Handler struct {
	service  *booking.Service
	engine   *availability.Engine
	receipts repository.ReceiptRepository
}

func NewHandler(service *booking.Service, engine *availability.Engine, receiptRepo repository.ReceiptRepository) *Handler {
	return &Handler{service: service, engine: engine, receipts: receiptRepo}
}

func mustUserID(c *gin.Context) (uint, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": "unauthorized"})
		return 0, false
	}
	return userID, true
}

// POST /bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	renterID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EquipmentID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid booking fields", "code": "invalid_request"})
		return
	}

	start, err1 := time.Parse(dateLayout, req.StartDate)
	end, err2 := time.Parse(dateLayout, req.EndDate)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dates must be YYYY-MM-DD", "code": "invalid_date_range"})
		return
	}

	b, session, err := h.service.CreateBooking(c.Request.Context(), req.EquipmentID, renterID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateBookingResponse{
		Booking:  toBookingDTO(b),
		Checkout: session,
	})
}

// POST /bookings/verify
func (h *Handler) VerifyPayment(c *gin.Context) {
	if _, ok := mustUserID(c); !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == 0 ||
		req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid verification fields", "code": "invalid_request"})
		return
	}

	b, rec, err := h.service.VerifyAndSettle(c.Request.Context(),
		req.BookingID, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyPaymentResponse{
		Booking: toBookingDTO(b),
		Receipt: toReceiptDTO(rec),
	})
}

// GET /bookings
func (h *Handler) ListMyBookings(c *gin.Context) {
	renterID, ok := mustUserID(c)
	if !ok {
		return
	}

	list, err := h.service.ListForRenter(c.Request.Context(), renterID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]BookingDTO, 0, len(list))
	for i := range list {
		out = append(out, toBookingDTO(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GET /bookings/availability?equipment_id=&start_date=&end_date=
//
// Dates default to a 30-day lookahead from today; a start date in the past
// is clamped to today.
func (h *Handler) CheckAvailability(c *gin.Context) {
	equipmentID, err := strconv.ParseUint(c.Query("equipment_id"), 10, 64)
	if err != nil || equipmentID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid equipment_id", "code": "invalid_request"})
		return
	}

	today := domain.DayStart(time.Now().UTC())

	start := today
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD", "code": "invalid_date_range"})
			return
		}
		start = domain.DayStart(parsed)
	}
	if start.Before(today) {
		start = today
	}

	end := start.AddDate(0, 0, defaultLookaheadDays-1)
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD", "code": "invalid_date_range"})
			return
		}
		end = domain.DayStart(parsed)
	}

	free, err := h.engine.IsAvailable(c.Request.Context(), uint(equipmentID), start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		Available: free,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
	})
}

// GET /receipts/:bookingId
func (h *Handler) GetReceipt(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	bookingID, err := strconv.ParseUint(c.Param("bookingId"), 10, 64)
	if err != nil || bookingID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking id", "code": "invalid_request"})
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), uint(bookingID))
	if err != nil {
		respondError(c, err)
		return
	}
	if b.RenterID != userID && c.GetString("role") != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied", "code": "forbidden"})
		return
	}

	rec, err := h.receipts.GetByBookingID(c.Request.Context(), b.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReceiptDTO(rec))
}

// respondError maps the lifecycle error taxonomy onto HTTP statuses with a
// machine-readable code next to the human-readable message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_date_range"})
	case errors.Is(err, payment.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_amount"})
	case errors.Is(err, domain.ErrEquipmentNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "equipment_not_found"})
	case errors.Is(err, domain.ErrEquipmentUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "equipment_unavailable"})
	case errors.Is(err, domain.ErrBookingNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "booking_not_payable"})
	case errors.Is(err, domain.ErrPaymentSetupFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "payment_setup_failed"})
	case errors.Is(err, domain.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_signature"})
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "booking_not_found"})
	case errors.Is(err, domain.ErrReceiptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "receipt_not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "code": "internal_error"})
	}
}
