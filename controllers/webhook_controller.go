package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harvestlane/marketplace/services"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

type WebhookController struct {
	Stripe     services.StripeGateway
	Settlement *services.SettlementService
	Logger     *zap.Logger
}

// StripeWebhook receives signed processor events. Signature verification
// fails closed with 400; processing failures return 500 so the processor
// redelivers against an idempotent settlement path.
func (wc *WebhookController) StripeWebhook(c *gin.Context) {
	event, err := wc.Stripe.ParseWebhook(c.Request)
	if err != nil {
		wc.Logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	wc.Logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			wc.Logger.Error("Failed to unmarshal payment intent", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
			return
		}

		if err := wc.Settlement.HandlePaymentSucceeded(c.Request.Context(), &pi); err != nil {
			if errors.Is(err, services.ErrBadEventMetadata) {
				// Deterministically broken payload: redelivery can never
				// succeed, so reject it as a validation failure.
				wc.Logger.Error("Rejecting event with malformed metadata",
					zap.String("event_id", event.ID), zap.Error(err))
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event metadata"})
				return
			}
			wc.Logger.Error("Settlement failed, requesting redelivery",
				zap.String("event_id", event.ID),
				zap.String("payment_intent_id", pi.ID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
			return
		}
	default:
		wc.Logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
