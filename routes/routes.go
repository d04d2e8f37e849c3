package routes

import (
	"github.com/harvestlane/marketplace/controllers"
	"github.com/harvestlane/marketplace/middleware"

	"github.com/gin-gonic/gin"
)

// Register wires all endpoints. The Stripe webhook stays unauthenticated;
// its trust boundary is the signature check in the controller.
func Register(
	r *gin.Engine,
	jwtSecret string,
	cart *controllers.CartController,
	checkout *controllers.CheckoutController,
	webhook *controllers.WebhookController,
	connect *controllers.ConnectController,
	orders *controllers.OrderController,
) {
	r.Use(middleware.RateLimitMiddleware())

	auth := middleware.AuthMiddleware(jwtSecret)

	cartGroup := r.Group("/cart")
	cartGroup.Use(auth)
	cartGroup.GET("", cart.GetCart)
	cartGroup.POST("/items", cart.AddItem)
	cartGroup.DELETE("/items/:product_id", cart.RemoveItem)
	cartGroup.DELETE("", cart.ClearCart)

	checkoutGroup := r.Group("/checkout")
	checkoutGroup.Use(auth)
	checkoutGroup.POST("/payment-intents", checkout.CreatePaymentIntents)
	checkoutGroup.POST("/session", checkout.StartSession)
	checkoutGroup.GET("/session/:id/next", checkout.NextIntent)
	checkoutGroup.POST("/session/:id/result", checkout.RecordResult)

	orderGroup := r.Group("/orders")
	orderGroup.Use(auth)
	orderGroup.GET("/customer", orders.CustomerOrders)
	orderGroup.GET("/vendor", orders.VendorOrders)

	stripeGroup := r.Group("/stripe")
	stripeGroup.POST("/webhook", webhook.StripeWebhook)
	stripeGroup.POST("/connect", auth, connect.StartOnboarding)
	stripeGroup.POST("/update-status", auth, connect.UpdateStatus)
}
