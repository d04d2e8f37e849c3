package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is unique per (customer, product); repeat adds increment
// quantity via an atomic upsert.
type CartItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_customer_product" json:"customer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_customer_product" json:"product_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CartLine is a cart row joined with its live product price and vendor.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}
