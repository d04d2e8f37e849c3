package repository

import (
	"context"
	"errors"

	"github.com/harvestlane/marketplace/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateOrder is returned when an order already exists for the same
// payment intent. Callers treat it as "already settled", not a failure.
var ErrDuplicateOrder = errors.New("order already exists for payment intent")

// OrderRepository defines data access for orders and their items.
type OrderRepository interface {
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	SetTransferID(ctx context.Context, orderID uuid.UUID, transferID string) error
	MarkCartCleared(ctx context.Context, orderID uuid.UUID) error
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindByVendorID(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]models.Order, int64, error)
}

type gormOrderRepo struct {
	db *gorm.DB
}

func NewGormOrderRepo(db *gorm.DB) OrderRepository {
	return &gormOrderRepo{db: db}
}

func (r *gormOrderRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// CreateWithItems inserts the order and its items in one transaction so an
// order row never exists without its items. The unique index on
// stripe_payment_intent_id closes the race between concurrent webhook
// deliveries; a uniqueness violation surfaces as ErrDuplicateOrder.
func (r *gormOrderRepo) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateOrder
		}
		return err
	}
	return nil
}

// SetTransferID records the fee transfer. The guard on stripe_transfer_id
// makes the update first-writer-wins: a concurrent redelivery that also
// retried the transfer cannot overwrite the recorded id.
func (r *gormOrderRepo) SetTransferID(ctx context.Context, orderID uuid.UUID, transferID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND stripe_transfer_id IS NULL", orderID).
		Updates(map[string]interface{}{
			"stripe_transfer_id": transferID,
			"status":             models.OrderStatusCompleted,
		}).Error
}

func (r *gormOrderRepo) MarkCartCleared(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("cart_cleared", true).Error
}

func (r *gormOrderRepo) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return r.findBy(ctx, "customer_id = ?", customerID, page, limit)
}

func (r *gormOrderRepo) FindByVendorID(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return r.findBy(ctx, "vendor_id = ?", vendorID, page, limit)
}

func (r *gormOrderRepo) findBy(ctx context.Context, cond string, id uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where(cond, id)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
