package main

import (
	"log"
	"time"

	"rental-app/config"
	"rental-app/database"
	adminapi "rental-app/internal/api/admin"
	bookingsapi "rental-app/internal/api/bookings"
	"rental-app/internal/api/gatewaywebhook"
	routes "rental-app/internal/app/http"
	"rental-app/internal/availability"
	"rental-app/internal/booking"
	"rental-app/internal/payment"
	"rental-app/internal/receipt"
	"rental-app/internal/repository"
	"rental-app/internal/webhook"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Init(config.DB_URL)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	equipmentRepo := repository.NewEquipmentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	gateway := payment.NewRazorpayGateway(
		config.RAZORPAY_KEY_ID,
		config.RAZORPAY_KEY_SECRET,
		config.RAZORPAY_WEBHOOK_SECRET,
		time.Duration(config.GATEWAY_TIMEOUT_SECONDS)*time.Second,
	)

	engine := availability.NewEngine(equipmentRepo, bookingRepo)
	issuer := receipt.NewIssuer(receiptRepo, equipmentRepo, gateway, logger)
	bookingService := booking.NewService(equipmentRepo, bookingRepo, engine, gateway, issuer, logger)
	reconciler := webhook.NewReconciler(bookingService, gateway, logger)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		Bookings: bookingsapi.NewHandler(bookingService, engine, receiptRepo),
		Webhook:  gatewaywebhook.NewHandler(reconciler, logger),
		Admin:    adminapi.NewHandler(bookingRepo, receiptRepo),
	})

	logger.Info("starting server", zap.String("port", config.PORT))
	if err := r.Run(":" + config.PORT); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if config.APP_ENV == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
