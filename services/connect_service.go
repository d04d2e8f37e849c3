package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileGuard dedups repeat reconciliations for unchanged external
// account state.
type ReconcileGuard interface {
	Seen(ctx context.Context, vendorID, stateHash string) (bool, error)
	Mark(ctx context.Context, vendorID, stateHash string) error
}

// ConnectService handles vendor onboarding onto the payment processor and
// reconciles capability flags when the vendor returns from the hosted flow.
type ConnectService struct {
	vendors repository.VendorAccountRepository
	stripe  StripeGateway
	guard   ReconcileGuard
	baseURL string
	logger  *zap.Logger
}

func NewConnectService(vendors repository.VendorAccountRepository, stripe StripeGateway, guard ReconcileGuard, baseURL string, logger *zap.Logger) *ConnectService {
	return &ConnectService{
		vendors: vendors,
		stripe:  stripe,
		guard:   guard,
		baseURL: baseURL,
		logger:  logger,
	}
}

// StartOnboarding lazily creates the vendor's express account and returns
// a fresh onboarding link. Re-running for an onboarded vendor just mints
// a new link for the existing account.
func (s *ConnectService) StartOnboarding(ctx context.Context, vendorID uuid.UUID) (string, error) {
	account, err := s.vendors.FindByVendorID(ctx, vendorID)
	if err != nil {
		return "", fmt.Errorf("vendor account lookup: %w", err)
	}

	var accountID string
	if account != nil {
		accountID = account.StripeAccountID
	} else {
		created, err := s.stripe.CreateExpressAccount(ctx)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrProcessor, err)
		}
		accountID = created.ID

		if err := s.vendors.Create(ctx, &models.VendorPaymentAccount{
			VendorID:        vendorID,
			StripeAccountID: created.ID,
		}); err != nil {
			return "", fmt.Errorf("persisting vendor account: %w", err)
		}
		s.logger.Info("Created express account for vendor",
			zap.String("vendor_id", vendorID.String()),
			zap.String("stripe_account_id", created.ID),
		)
	}

	link, err := s.stripe.CreateAccountLink(ctx, accountID,
		s.baseURL+"/vendor/stripe/return",
		s.baseURL+"/vendor/stripe/refresh",
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	return link.URL, nil
}

// ReconcileAccountStatus re-fetches the vendor's capability flags from the
// processor and persists them verbatim. A repeat call with unchanged
// external state is short-circuited by the server-side guard.
func (s *ConnectService) ReconcileAccountStatus(ctx context.Context, vendorID uuid.UUID) (*models.VendorPaymentAccount, error) {
	account, err := s.vendors.FindByVendorID(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("vendor account lookup: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	remote, err := s.stripe.RetrieveAccount(ctx, account.StripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	stateHash := accountStateHash(remote.ChargesEnabled, remote.PayoutsEnabled, remote.DetailsSubmitted)
	seen, err := s.guard.Seen(ctx, vendorID.String(), stateHash)
	if err != nil {
		// The guard is advisory; reconciliation itself is idempotent.
		s.logger.Warn("Reconcile dedup lookup failed", zap.Error(err))
	}

	if !seen {
		if err := s.vendors.UpdateFlags(ctx, account.StripeAccountID,
			remote.ChargesEnabled, remote.PayoutsEnabled, remote.DetailsSubmitted); err != nil {
			return nil, fmt.Errorf("persisting capability flags: %w", err)
		}
		if err := s.guard.Mark(ctx, vendorID.String(), stateHash); err != nil {
			s.logger.Warn("Reconcile dedup mark failed", zap.Error(err))
		}
		s.logger.Info("Vendor capability flags reconciled",
			zap.String("vendor_id", vendorID.String()),
			zap.Bool("charges_enabled", remote.ChargesEnabled),
			zap.Bool("payouts_enabled", remote.PayoutsEnabled),
			zap.Bool("details_submitted", remote.DetailsSubmitted),
		)
	}

	account.ChargesEnabled = remote.ChargesEnabled
	account.PayoutsEnabled = remote.PayoutsEnabled
	account.DetailsSubmitted = remote.DetailsSubmitted
	return account, nil
}

func accountStateHash(charges, payouts, details bool) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%t|%t|%t", charges, payouts, details)))
	return hex.EncodeToString(sum[:])
}
