package repository

import (
	"context"
	"errors"

	"github.com/harvestlane/marketplace/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorAccountRepository defines data access for vendor payment accounts.
type VendorAccountRepository interface {
	FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*models.VendorPaymentAccount, error)
	Create(ctx context.Context, account *models.VendorPaymentAccount) error
	UpdateFlags(ctx context.Context, stripeAccountID string, charges, payouts, details bool) error
}

type gormVendorAccountRepo struct {
	db *gorm.DB
}

func NewGormVendorAccountRepo(db *gorm.DB) VendorAccountRepository {
	return &gormVendorAccountRepo{db: db}
}

// FindByVendorID returns nil without error when the vendor has no account
// yet; callers decide whether that means "create one" or "refuse".
func (r *gormVendorAccountRepo) FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*models.VendorPaymentAccount, error) {
	var account models.VendorPaymentAccount
	err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *gormVendorAccountRepo) Create(ctx context.Context, account *models.VendorPaymentAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// UpdateFlags persists Stripe capability flags verbatim.
func (r *gormVendorAccountRepo) UpdateFlags(ctx context.Context, stripeAccountID string, charges, payouts, details bool) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorPaymentAccount{}).
		Where("stripe_account_id = ?", stripeAccountID).
		Updates(map[string]interface{}{
			"charges_enabled":   charges,
			"payouts_enabled":   payouts,
			"details_submitted": details,
		}).Error
}
