package services

import (
	"context"
	"testing"

	"github.com/harvestlane/marketplace/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

func TestStartOnboarding_CreatesAccountLazily(t *testing.T) {
	vendors := newMockVendorRepo()
	gateway := newMockStripe()
	gateway.link = "https://connect.stripe.com/setup/example"
	svc := NewConnectService(vendors, gateway, newMockGuard(), "https://market.example", zap.NewNop())

	vendorID := uuid.New()
	url, err := svc.StartOnboarding(context.Background(), vendorID)
	require.NoError(t, err)
	assert.Equal(t, gateway.link, url)

	account := vendors.accounts[vendorID]
	require.NotNil(t, account)
	assert.NotEmpty(t, account.StripeAccountID)

	// A second call reuses the stored account instead of creating another.
	firstAccountID := account.StripeAccountID
	_, err = svc.StartOnboarding(context.Background(), vendorID)
	require.NoError(t, err)
	assert.Equal(t, firstAccountID, vendors.accounts[vendorID].StripeAccountID)
}

func TestReconcile_PersistsFlagsVerbatim(t *testing.T) {
	vendors := newMockVendorRepo()
	gateway := newMockStripe()
	svc := NewConnectService(vendors, gateway, newMockGuard(), "https://market.example", zap.NewNop())

	vendorID := uuid.New()
	vendors.accounts[vendorID] = &models.VendorPaymentAccount{
		VendorID:        vendorID,
		StripeAccountID: "acct_123",
	}
	gateway.account = &stripe.Account{
		ID:               "acct_123",
		ChargesEnabled:   true,
		PayoutsEnabled:   false,
		DetailsSubmitted: true,
	}

	account, err := svc.ReconcileAccountStatus(context.Background(), vendorID)
	require.NoError(t, err)
	assert.True(t, account.ChargesEnabled)
	assert.False(t, account.PayoutsEnabled)
	assert.True(t, account.DetailsSubmitted)
	assert.Equal(t, 1, vendors.updates)
}

func TestReconcile_RepeatWithUnchangedStateSkipsWrite(t *testing.T) {
	vendors := newMockVendorRepo()
	gateway := newMockStripe()
	svc := NewConnectService(vendors, gateway, newMockGuard(), "https://market.example", zap.NewNop())

	vendorID := uuid.New()
	vendors.accounts[vendorID] = &models.VendorPaymentAccount{
		VendorID:        vendorID,
		StripeAccountID: "acct_123",
	}
	gateway.account = &stripe.Account{ID: "acct_123", ChargesEnabled: true}

	for i := 0; i < 3; i++ {
		_, err := svc.ReconcileAccountStatus(context.Background(), vendorID)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, vendors.updates)

	// External state change reconciles again.
	gateway.account = &stripe.Account{ID: "acct_123", ChargesEnabled: true, PayoutsEnabled: true}
	_, err := svc.ReconcileAccountStatus(context.Background(), vendorID)
	require.NoError(t, err)
	assert.Equal(t, 2, vendors.updates)
}

func TestReconcile_UnknownVendor(t *testing.T) {
	svc := NewConnectService(newMockVendorRepo(), newMockStripe(), newMockGuard(), "https://market.example", zap.NewNop())

	_, err := svc.ReconcileAccountStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
