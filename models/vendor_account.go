package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorPaymentAccount tracks a vendor's Stripe Connect account and its
// capability flags. One per vendor, created lazily on first onboarding
// request. The flags mirror Stripe verbatim; Stripe is the source of truth.
type VendorPaymentAccount struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"vendor_id"`
	StripeAccountID  string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_account_id"`
	ChargesEnabled   bool      `gorm:"not null;default:false" json:"charges_enabled"`
	PayoutsEnabled   bool      `gorm:"not null;default:false" json:"payouts_enabled"`
	DetailsSubmitted bool      `gorm:"not null;default:false" json:"details_submitted"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
