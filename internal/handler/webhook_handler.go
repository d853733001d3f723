package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"terra-storefront/internal/infrastructure/payment"
	"terra-storefront/internal/service"
)

// SignatureHeader carries the gateway's HMAC signature over the raw body.
const SignatureHeader = "X-Gateway-Signature"

type WebhookHandler struct {
	checkout service.CheckoutService
}

func NewWebhookHandler(checkout service.CheckoutService) *WebhookHandler {
	return &WebhookHandler{checkout: checkout}
}

// POST /api/webhook
//
// This endpoint is authenticated by the event signature, not by a user
// session. Verification needs the exact raw bytes, so the body is read
// before any JSON decoding.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	err = h.checkout.ConfirmPayment(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrUntrustedEvent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
			return
		}
		// Storage failure: let the gateway's at-least-once delivery retry.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
