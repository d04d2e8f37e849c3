package repository

import (
	"context"

	"github.com/harvestlane/marketplace/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository defines data access for cart rows.
type CartRepository interface {
	LinesWithProducts(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	Upsert(ctx context.Context, customerID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error
	RemoveItems(ctx context.Context, customerID uuid.UUID, productIDs []uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type gormCartRepo struct {
	db *gorm.DB
}

func NewGormCartRepo(db *gorm.DB) CartRepository {
	return &gormCartRepo{db: db}
}

// LinesWithProducts joins cart rows with live product price and vendor id.
func (r *gormCartRepo) LinesWithProducts(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("cart_items.product_id, products.vendor_id, products.title, cart_items.quantity, products.price AS unit_price").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.customer_id = ?", customerID).
		Order("products.vendor_id, cart_items.created_at").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Upsert increments the quantity with a single ON CONFLICT statement so
// concurrent adds for the same (customer, product) never lose updates.
func (r *gormCartRepo) Upsert(ctx context.Context, customerID, productID uuid.UUID, quantity int) error {
	item := models.CartItem{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
		}),
	}).Create(&item).Error
}

func (r *gormCartRepo) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.CartItem{}).Error
}

// RemoveItems deletes only the given products from a customer's cart.
// Settlement uses this so rows belonging to other vendors, or added after
// the intent was created, survive. Deleting an already-absent row is a
// no-op, which keeps the call safe to repeat.
func (r *gormCartRepo) RemoveItems(ctx context.Context, customerID uuid.UUID, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id IN ?", customerID, productIDs).
		Delete(&models.CartItem{}).Error
}

// Clear deletes all cart rows for a customer.
func (r *gormCartRepo) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.CartItem{}).Error
}
