package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/harvestlane/marketplace/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCheckoutFixture(lines []models.CartLine) (*CheckoutService, *mockVendorRepo, *mockStripe) {
	carts := &mockCartRepo{lines: lines}
	vendors := newMockVendorRepo()
	gateway := newMockStripe()
	svc := NewCheckoutService(NewCartService(carts), vendors, gateway, 0.01, "usd", zap.NewNop())
	return svc, vendors, gateway
}

func onboardedVendor(vendors *mockVendorRepo, vendorID uuid.UUID) *models.VendorPaymentAccount {
	account := &models.VendorPaymentAccount{
		VendorID:        vendorID,
		StripeAccountID: "acct_" + vendorID.String(),
		ChargesEnabled:  true,
	}
	vendors.accounts[vendorID] = account
	return account
}

func TestBuildIntents_SingleVendor(t *testing.T) {
	vendorID := uuid.New()
	customerID := uuid.New()
	productID := uuid.New()

	// 2 × $10.00 at a 1% fee rate
	svc, vendors, gateway := newCheckoutFixture([]models.CartLine{
		{ProductID: productID, VendorID: vendorID, Quantity: 2, UnitPrice: 1000},
	})
	onboardedVendor(vendors, vendorID)

	results, failures, err := svc.BuildIntents(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, results, 1)
	assert.Equal(t, vendorID, results[0].VendorID)
	assert.Equal(t, int64(2000), results[0].Amount)
	assert.NotEmpty(t, results[0].ClientSecret)

	require.Len(t, gateway.intents, 1)
	created := gateway.intents[0]
	assert.Equal(t, int64(2000), created.Amount)
	assert.Equal(t, int64(20), created.ApplicationFee)
	assert.Equal(t, "acct_"+vendorID.String(), created.Destination)
	assert.Equal(t, vendorID.String(), created.Metadata["vendor_id"])
	assert.Equal(t, customerID.String(), created.Metadata["customer_id"])

	var items []models.IntentMetadataItem
	require.NoError(t, json.Unmarshal([]byte(created.Metadata["items"]), &items))
	require.Len(t, items, 1)
	assert.Equal(t, productID.String(), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestBuildIntents_MultiVendorIndependentGroups(t *testing.T) {
	v1, v2 := uuid.New(), uuid.New()

	svc, vendors, gateway := newCheckoutFixture([]models.CartLine{
		{ProductID: uuid.New(), VendorID: v1, Quantity: 1, UnitPrice: 500},
		{ProductID: uuid.New(), VendorID: v2, Quantity: 3, UnitPrice: 250},
		{ProductID: uuid.New(), VendorID: v1, Quantity: 2, UnitPrice: 100},
	})
	onboardedVendor(vendors, v1)
	onboardedVendor(vendors, v2)

	results, failures, err := svc.BuildIntents(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, results, 2)
	require.Len(t, gateway.intents, 2)

	amounts := map[uuid.UUID]int64{}
	for _, r := range results {
		amounts[r.VendorID] = r.Amount
	}
	assert.Equal(t, int64(700), amounts[v1])
	assert.Equal(t, int64(750), amounts[v2])
}

func TestBuildIntents_VendorGating(t *testing.T) {
	onboarded, missing, disabled := uuid.New(), uuid.New(), uuid.New()

	svc, vendors, _ := newCheckoutFixture([]models.CartLine{
		{ProductID: uuid.New(), VendorID: onboarded, Quantity: 1, UnitPrice: 100},
		{ProductID: uuid.New(), VendorID: missing, Quantity: 1, UnitPrice: 100},
		{ProductID: uuid.New(), VendorID: disabled, Quantity: 1, UnitPrice: 100},
	})
	onboardedVendor(vendors, onboarded)
	vendors.accounts[disabled] = &models.VendorPaymentAccount{
		VendorID:        disabled,
		StripeAccountID: "acct_disabled",
		ChargesEnabled:  false,
	}

	results, failures, err := svc.BuildIntents(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, onboarded, results[0].VendorID)

	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.ErrorIs(t, f.Err, ErrVendorNotOnboarded)
	}
}

func TestBuildIntents_ProcessorFailureIsolatedPerVendor(t *testing.T) {
	healthy, broken := uuid.New(), uuid.New()

	svc, vendors, gateway := newCheckoutFixture([]models.CartLine{
		{ProductID: uuid.New(), VendorID: healthy, Quantity: 1, UnitPrice: 100},
		{ProductID: uuid.New(), VendorID: broken, Quantity: 1, UnitPrice: 100},
	})
	onboardedVendor(vendors, healthy)
	brokenAccount := onboardedVendor(vendors, broken)
	gateway.intentErr[brokenAccount.StripeAccountID] = errors.New("api unavailable")

	results, failures, err := svc.BuildIntents(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, healthy, results[0].VendorID)
	require.Len(t, failures, 1)
	assert.Equal(t, broken, failures[0].VendorID)
	assert.ErrorIs(t, failures[0].Err, ErrProcessor)
}

func TestBuildIntents_EmptyCart(t *testing.T) {
	svc, _, _ := newCheckoutFixture(nil)

	_, _, err := svc.BuildIntents(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBuildIntents_NoIdentity(t *testing.T) {
	svc, _, _ := newCheckoutFixture(nil)

	_, _, err := svc.BuildIntents(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestBuildIntents_AllVendorsFailed(t *testing.T) {
	vendorID := uuid.New()
	svc, _, _ := newCheckoutFixture([]models.CartLine{
		{ProductID: uuid.New(), VendorID: vendorID, Quantity: 1, UnitPrice: 100},
	})

	_, failures, err := svc.BuildIntents(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAllVendorsFailed)
	require.Len(t, failures, 1)
}

func TestPlatformFee_Rounding(t *testing.T) {
	assert.Equal(t, int64(20), PlatformFee(2000, 0.01))
	assert.Equal(t, int64(1), PlatformFee(50, 0.01))
	assert.Equal(t, int64(0), PlatformFee(49, 0.01))
	assert.Equal(t, int64(13), PlatformFee(1250, 0.01))
}
