package gatewaywebhook

import (
	"errors"
	"io"
	"net/http"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxBodyBytes = 65536

// Handler is the transport shim in front of the reconciler. The gateway
// retries anything that is not a 2xx, so processing errors are logged and
// acked; only a signature failure is rejected.
type Handler struct {
	reconciler *webhook.Reconciler
	logger     *zap.Logger
}

func NewHandler(reconciler *webhook.Reconciler, logger *zap.Logger) *Handler {
	return &Handler{reconciler: reconciler, logger: logger}
}

// POST /webhook
func (h *Handler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body", "code": "body_read_failed"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := h.reconciler.HandleEvent(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, bookings.ErrInvalidSignature) {
			h.logger.Warn("webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed", "code": "invalid_signature"})
			return
		}
		h.logger.Error("webhook processing failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
