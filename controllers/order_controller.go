package controllers

import (
	"net/http"
	"strconv"

	"github.com/harvestlane/marketplace/middleware"
	"github.com/harvestlane/marketplace/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderController struct {
	Orders repository.OrderRepository
	Logger *zap.Logger
}

// CustomerOrders lists the caller's orders with their line items.
func (oc *OrderController) CustomerOrders(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	page, limit := pagination(c)

	orders, total, err := oc.Orders.FindByCustomerID(c.Request.Context(), customerID, page, limit)
	if err != nil {
		respondError(c, oc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total, "page": page, "limit": limit})
}

// VendorOrders lists orders placed against the caller's vendor account.
// Only tokens carrying the vendor role may query by vendor id.
func (oc *OrderController) VendorOrders(c *gin.Context) {
	if middleware.GetUserRole(c) != middleware.RoleVendor {
		c.JSON(http.StatusForbidden, gin.H{"error": "vendor role required"})
		return
	}
	vendorID := middleware.GetUserID(c)
	page, limit := pagination(c)

	orders, total, err := oc.Orders.FindByVendorID(c.Request.Context(), vendorID, page, limit)
	if err != nil {
		respondError(c, oc.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total, "page": page, "limit": limit})
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
