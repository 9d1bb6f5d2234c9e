package routes

import (
	adminapi "rental-app/internal/api/admin"
	bookingsapi "rental-app/internal/api/bookings"
	"rental-app/internal/api/gatewaywebhook"
	"rental-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Bookings *bookingsapi.Handler
	Webhook  *gatewaywebhook.Handler
	Admin    *adminapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// Raw-body route: no sanitization, the signature covers the exact bytes.
	r.POST("/webhook", h.Webhook.HandleWebhook)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.GET("/bookings/availability", h.Bookings.CheckAvailability)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.SanitizeAndCleanInputMiddleware())
	auth.POST("/bookings", h.Bookings.CreateBooking)
	auth.POST("/bookings/verify", h.Bookings.VerifyPayment)
	auth.GET("/bookings", h.Bookings.ListMyBookings)
	auth.GET("/receipts/:bookingId", h.Bookings.GetReceipt)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/bookings", h.Admin.ListAllBookings)
	admin.GET("/receipts", h.Admin.ListAllReceipts)
}
