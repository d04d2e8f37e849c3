package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the authoritative price reference. Prices are stored in the
// smallest currency unit and re-read at settlement time; client-supplied
// amounts are never trusted.
type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID       uuid.UUID `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title"`
	Price          int64     `gorm:"not null" json:"price"` // smallest currency unit
	InventoryCount int       `gorm:"not null;default:0" json:"inventory_count"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
