package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKeySecret     = "test_key_secret"
	testWebhookSecret = "test_webhook_secret"
)

func newTestGateway() *RazorpayGateway {
	return NewRazorpayGateway("rzp_test_key", testKeySecret, testWebhookSecret, 5*time.Second)
}

func sign(secret string, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	g := newTestGateway()
	orderID := "order_N5qFAb1cJQzRar"
	paymentID := "pay_N5qGCKVmXg3kA9"

	valid := sign(testKeySecret, orderID+"|"+paymentID)

	assert.True(t, g.VerifySignature(orderID, paymentID, valid))

	assert.False(t, g.VerifySignature(orderID, paymentID, valid[:len(valid)-2]+"00"), "tampered signature")
	assert.False(t, g.VerifySignature(orderID, "pay_other", valid), "signature for different payment")
	assert.False(t, g.VerifySignature("order_other", paymentID, valid), "signature for different order")
	assert.False(t, g.VerifySignature(orderID, paymentID, ""), "empty signature")
	assert.False(t, g.VerifySignature("", paymentID, valid), "empty order id")
}

func TestVerifyWebhookSignature(t *testing.T) {
	g := newTestGateway()
	body := []byte(`{"event":"payment.captured","payload":{}}`)

	valid := sign(testWebhookSecret, string(body))

	assert.True(t, g.VerifyWebhookSignature(body, valid))
	assert.False(t, g.VerifyWebhookSignature(body, sign(testKeySecret, string(body))),
		"webhook secret is distinct from the key secret")
	assert.False(t, g.VerifyWebhookSignature([]byte(`{"event":"tampered"}`), valid))
	assert.False(t, g.VerifyWebhookSignature(nil, valid))
	assert.False(t, g.VerifyWebhookSignature(body, ""))
}

func TestCreateSessionRejectsNonPositiveAmount(t *testing.T) {
	g := newTestGateway()

	_, err := g.CreateSession(context.Background(), SessionParams{BookingID: 1, AmountMinor: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = g.CreateSession(context.Background(), SessionParams{BookingID: 1, AmountMinor: -500})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDecodePaymentRecord(t *testing.T) {
	body := map[string]interface{}{
		"id":         "pay_N5qGCKVmXg3kA9",
		"order_id":   "order_N5qFAb1cJQzRar",
		"status":     "captured",
		"amount":     float64(150000),
		"method":     "upi",
		"created_at": float64(1717236000),
	}

	rec, err := decodePaymentRecord(body)
	require.NoError(t, err)
	assert.Equal(t, "pay_N5qGCKVmXg3kA9", rec.ID)
	assert.Equal(t, "order_N5qFAb1cJQzRar", rec.OrderID)
	assert.Equal(t, "captured", rec.Status)
	assert.Equal(t, int64(150000), rec.AmountMinor)
	assert.Equal(t, "upi", rec.Method)
	assert.Equal(t, time.Unix(1717236000, 0).UTC(), rec.CreatedAt)
}

func TestDecodePaymentRecordRejectsMalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing id", map[string]interface{}{"order_id": "o", "status": "captured", "amount": float64(1)}},
		{"missing status", map[string]interface{}{"id": "p", "order_id": "o", "amount": float64(1)}},
		{"amount as string", map[string]interface{}{"id": "p", "order_id": "o", "status": "captured", "amount": "1500"}},
		{"missing order_id", map[string]interface{}{"id": "p", "status": "captured", "amount": float64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePaymentRecord(tt.body)
			assert.ErrorIs(t, err, ErrGateway)
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "captured", NormalizeStatus("captured"))
	assert.Equal(t, "pending", NormalizeStatus("created"))
	assert.Equal(t, "pending", NormalizeStatus("authorized"))
	assert.Equal(t, "failed", NormalizeStatus("failed"))
	assert.Equal(t, "refunded", NormalizeStatus("refunded"))
	assert.Equal(t, "unknown", NormalizeStatus(""))
	assert.Equal(t, "disputed", NormalizeStatus(" disputed "))
}
