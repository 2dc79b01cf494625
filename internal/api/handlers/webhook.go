package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader     = "Stripe-Signature"
	maxWebhookBodyBytes = 1 << 20
)

type WebhookHandler struct {
	ingestor WebhookIngestor
}

func NewWebhookHandler(ingestor WebhookIngestor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

// Payments receives provider notifications. The raw body is kept intact because
// the signature covers the exact bytes.
// POST /webhooks/payments
func (h *WebhookHandler) Payments(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		badRequest(c, "Unreadable body", err)
		return
	}

	ack, err := h.ingestor.HandleEvent(c.Request.Context(), body, c.GetHeader(SignatureHeader))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "event_id": ack.EventID, "status": ack.Status})
}
