package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntentResult is one vendor's created payment intent, ready to hand to
// the browser.
type IntentResult struct {
	VendorID     uuid.UUID `json:"vendor_id"`
	ClientSecret string    `json:"client_secret"`
	Amount       int64     `json:"amount"`
}

// VendorFailure records why one vendor group's intent could not be
// created. Other groups proceed independently.
type VendorFailure struct {
	VendorID uuid.UUID `json:"vendor_id"`
	Reason   string    `json:"error"`
	Err      error     `json:"-"`
}

// CheckoutService builds per-vendor payment intents with an embedded
// platform fee.
type CheckoutService struct {
	cart     *CartService
	vendors  repository.VendorAccountRepository
	stripe   StripeGateway
	feeRate  float64
	currency string
	logger   *zap.Logger
}

func NewCheckoutService(cart *CartService, vendors repository.VendorAccountRepository, stripe StripeGateway, feeRate float64, currency string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		cart:     cart,
		vendors:  vendors,
		stripe:   stripe,
		feeRate:  feeRate,
		currency: currency,
		logger:   logger,
	}
}

// PlatformFee computes the marketplace cut for a charge amount.
func PlatformFee(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate))
}

// BuildIntents groups the cart by vendor and creates one payment intent
// per group. A failing vendor group does not block the others.
func (s *CheckoutService) BuildIntents(ctx context.Context, customerID uuid.UUID) ([]IntentResult, []VendorFailure, error) {
	groups, err := s.cart.GroupByVendor(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	var results []IntentResult
	var failures []VendorFailure
	for _, group := range groups {
		result, err := s.buildIntent(ctx, customerID, group)
		if err != nil {
			s.logger.Warn("Payment intent creation failed for vendor group",
				zap.String("vendor_id", group.VendorID.String()),
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
			failures = append(failures, VendorFailure{VendorID: group.VendorID, Reason: err.Error(), Err: err})
			continue
		}
		results = append(results, *result)
	}

	if len(results) == 0 {
		return nil, failures, ErrAllVendorsFailed
	}
	return results, failures, nil
}

func (s *CheckoutService) buildIntent(ctx context.Context, customerID uuid.UUID, group VendorGroup) (*IntentResult, error) {
	account, err := s.vendors.FindByVendorID(ctx, group.VendorID)
	if err != nil {
		return nil, fmt.Errorf("vendor account lookup: %w", err)
	}
	// An intent against a non-chargeable destination errors downstream,
	// so a missing or disabled account blocks intent creation outright.
	if account == nil || !account.ChargesEnabled {
		return nil, ErrVendorNotOnboarded
	}

	items := make([]models.IntentMetadataItem, 0, len(group.Items))
	for _, line := range group.Items {
		items = append(items, models.IntentMetadataItem{
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
		})
	}
	serialized, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	fee := PlatformFee(group.Amount, s.feeRate)
	pi, err := s.stripe.CreatePaymentIntent(ctx, CreateIntentParams{
		Amount:         group.Amount,
		Currency:       s.currency,
		ApplicationFee: fee,
		Destination:    account.StripeAccountID,
		Metadata: map[string]string{
			"vendor_id":   group.VendorID.String(),
			"customer_id": customerID.String(),
			"items":       string(serialized),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	return &IntentResult{
		VendorID:     group.VendorID,
		ClientSecret: pi.ClientSecret,
		Amount:       group.Amount,
	}, nil
}
