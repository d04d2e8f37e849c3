package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is created exactly once per confirmed PaymentIntent. The unique
// index on StripePaymentIntentID is the idempotency key for webhook
// redelivery.
type Order struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID            uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	VendorID              uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_id"`
	StripePaymentIntentID string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_payment_intent_id"`
	TotalAmount           int64     `gorm:"not null" json:"total_amount"`
	PlatformFeeAmount     int64     `gorm:"not null" json:"platform_fee_amount"`
	StripeTransferID      *string   `gorm:"type:varchar(255)" json:"stripe_transfer_id,omitempty"`
	CartCleared           bool      `gorm:"not null;default:false" json:"cart_cleared"`
	Status                string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems            []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
}

// OrderItem snapshots the authoritative product price at settlement time.
// PriceMissing marks lines whose product could not be found when pricing;
// those settle at 0 and are flagged for follow-up instead of aborting.
type OrderItem struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	UnitPrice    int64     `gorm:"not null" json:"unit_price"`
	PriceMissing bool      `gorm:"not null;default:false" json:"price_missing"`
}

// Order statuses
const (
	OrderStatusCompleted  = "completed"
	OrderStatusFeePending = "fee_pending"
)
