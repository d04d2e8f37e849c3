package controllers

import (
	"net/http"

	"github.com/harvestlane/marketplace/middleware"
	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutController struct {
	Checkout *services.CheckoutService
	Sessions *services.SessionService
	Logger   *zap.Logger
}

// CreatePaymentIntents builds one payment intent per vendor group in the
// caller's cart. Vendor groups fail independently; the response carries
// both successes and failures.
func (cc *CheckoutController) CreatePaymentIntents(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	results, failures, err := cc.Checkout.BuildIntents(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_intents": results,
		"failures":        failures,
	})
}

// StartSession creates a checkout session with an explicit queue of
// pending intents, one per vendor group.
func (cc *CheckoutController) StartSession(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	sess, failures, err := cc.Sessions.Start(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":  sess,
		"failures": failures,
	})
}

// NextIntent returns the next pending intent in the session queue, or a
// done marker once every intent reached a terminal status.
func (cc *CheckoutController) NextIntent(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	sessionID := c.Param("id")

	intent, err := cc.Sessions.Next(c.Request.Context(), sessionID, customerID)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	if intent == nil {
		c.JSON(http.StatusOK, gin.H{"done": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"done": false, "intent": intent})
}

// RecordResult stores the browser-reported confirmation outcome for one
// vendor's intent. A failed attempt keeps the same intent retryable.
func (cc *CheckoutController) RecordResult(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	sessionID := c.Param("id")

	var req struct {
		VendorID string `json:"vendor_id" binding:"required"`
		Status   string `json:"status" binding:"required"`
		Error    string `json:"error"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.Status != models.IntentStatusSucceeded && req.Status != models.IntentStatusFailed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be succeeded or failed"})
		return
	}

	sess, err := cc.Sessions.RecordResult(c.Request.Context(), sessionID, customerID, req.VendorID, req.Status, req.Error)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}
