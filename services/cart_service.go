package services

import (
	"context"

	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"

	"github.com/google/uuid"
)

// VendorGroup is one vendor's slice of a customer's cart, priced from the
// live product table.
type VendorGroup struct {
	VendorID uuid.UUID
	Items    []models.CartLine
	Amount   int64
}

// CartService reads cart state. It is side-effect free; mutation goes
// through the repository directly.
type CartService struct {
	carts repository.CartRepository
}

func NewCartService(carts repository.CartRepository) *CartService {
	return &CartService{carts: carts}
}

// Lines returns the customer's cart rows joined with product price and
// vendor id.
func (s *CartService) Lines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	if customerID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	return s.carts.LinesWithProducts(ctx, customerID)
}

// GroupByVendor maps the cart into per-vendor groups with the charge
// amount precomputed. Groups come back in a stable vendor order.
func (s *CartService) GroupByVendor(ctx context.Context, customerID uuid.UUID) ([]VendorGroup, error) {
	lines, err := s.Lines(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var groups []VendorGroup
	index := make(map[uuid.UUID]int)
	for _, line := range lines {
		i, ok := index[line.VendorID]
		if !ok {
			i = len(groups)
			index[line.VendorID] = i
			groups = append(groups, VendorGroup{VendorID: line.VendorID})
		}
		groups[i].Items = append(groups[i].Items, line)
		groups[i].Amount += line.UnitPrice * int64(line.Quantity)
	}
	return groups, nil
}
