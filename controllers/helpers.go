package controllers

import (
	"errors"
	"net/http"

	apperrors "github.com/harvestlane/marketplace/errors"
	"github.com/harvestlane/marketplace/repository"
	"github.com/harvestlane/marketplace/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// classify maps service-level errors onto HTTP application errors.
func classify(err error) *apperrors.Error {
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return apperrors.ErrUnauthorized
	case errors.Is(err, services.ErrEmptyCart):
		return apperrors.New(http.StatusBadRequest, "Cart is empty", err)
	case errors.Is(err, services.ErrVendorNotOnboarded):
		return apperrors.New(http.StatusBadRequest, "Vendor is not configured for payments", err)
	case errors.Is(err, services.ErrAccountNotFound):
		return apperrors.New(http.StatusNotFound, "Stripe account not found", err)
	case errors.Is(err, services.ErrAllVendorsFailed):
		return apperrors.New(http.StatusBadGateway, "Failed to create payment intents", err)
	case errors.Is(err, services.ErrProcessor):
		return apperrors.New(http.StatusBadGateway, "Payment processor request failed", err)
	case errors.Is(err, repository.ErrSessionNotFound):
		return apperrors.New(http.StatusNotFound, "Checkout session not found", err)
	default:
		return apperrors.ErrInternalServer
	}
}

// respondError logs the failure and writes the mapped JSON error body.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := classify(err)
	logger.Warn(appErr.Message,
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
