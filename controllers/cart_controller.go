package controllers

import (
	"errors"
	"net/http"

	"github.com/harvestlane/marketplace/middleware"
	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"
	"github.com/harvestlane/marketplace/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CartController struct {
	Cart     *services.CartService
	Carts    repository.CartRepository
	Products repository.ProductRepository
	Logger   *zap.Logger
}

// GetCart returns the caller's cart rows joined with live product data.
func (cc *CartController) GetCart(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	lines, err := cc.Cart.Lines(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	if lines == nil {
		lines = []models.CartLine{}
	}

	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}
	c.JSON(http.StatusOK, gin.H{"items": lines, "subtotal": subtotal})
}

// AddItem upserts a cart row; repeat adds increment quantity atomically.
func (cc *CartController) AddItem(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	var req struct {
		ProductID uuid.UUID `json:"product_id" binding:"required"`
		Quantity  int       `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if _, err := cc.Products.FindByID(c.Request.Context(), req.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		respondError(c, cc.Logger, err)
		return
	}

	if err := cc.Carts.Upsert(c.Request.Context(), customerID, req.ProductID, req.Quantity); err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

// RemoveItem deletes one product's row from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := cc.Carts.RemoveItem(c.Request.Context(), customerID, productID); err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// ClearCart empties the caller's cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	customerID := middleware.GetUserID(c)

	if err := cc.Carts.Clear(c.Request.Context(), customerID); err != nil {
		respondError(c, cc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
