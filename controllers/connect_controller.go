package controllers

import (
	"net/http"

	"github.com/harvestlane/marketplace/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConnectController struct {
	Connect *services.ConnectService
	Logger  *zap.Logger
}

// StartOnboarding lazily creates the vendor's Connect account and returns
// the hosted onboarding link.
func (cc *ConnectController) StartOnboarding(c *gin.Context) {
	var req struct {
		VendorID uuid.UUID `json:"vendor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id is required"})
		return
	}

	url, err := cc.Connect.StartOnboarding(c.Request.Context(), req.VendorID)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// UpdateStatus re-fetches capability flags from Stripe after the vendor
// returns from onboarding and persists them verbatim. Safe to call
// repeatedly; unchanged external state is a no-op.
func (cc *ConnectController) UpdateStatus(c *gin.Context) {
	var req struct {
		VendorID uuid.UUID `json:"vendor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id is required"})
		return
	}

	account, err := cc.Connect.ReconcileAccountStatus(c.Request.Context(), req.VendorID)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"charges_enabled":   account.ChargesEnabled,
		"payouts_enabled":   account.PayoutsEnabled,
		"details_submitted": account.DetailsSubmitted,
	})
}
