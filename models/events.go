package models

import "time"

// OrderSettledEvent is published after a webhook settlement completes so
// dashboard and notification consumers can react without polling.
type OrderSettledEvent struct {
	Type              string    `json:"type"` // "order_settled"
	OrderID           string    `json:"order_id"`
	CustomerID        string    `json:"customer_id"`
	VendorID          string    `json:"vendor_id"`
	PaymentIntentID   string    `json:"payment_intent_id"`
	TotalAmount       int64     `json:"total_amount"`
	PlatformFeeAmount int64     `json:"platform_fee_amount"`
	Currency          string    `json:"currency"`
	Timestamp         time.Time `json:"timestamp"`
}

// IntentMetadataItem is the shape serialized into PaymentIntent metadata.
// Only ids and quantities travel through Stripe; prices are re-read from
// the products table at settlement.
type IntentMetadataItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
