package services

import (
	"context"
	"time"

	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxIntentAttempts is how many confirmation failures a single intent may
// report before the session marks it failed for good.
const maxIntentAttempts = 3

// SessionStore persists checkout session queues.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	Save(ctx context.Context, sess *models.CheckoutSession) error
	Delete(ctx context.Context, id string) error
}

// SessionService runs checkout as an explicit queue of pending per-vendor
// intents. The browser confirms one intent at a time; a failed attempt
// retries the same intent instead of creating a new one.
type SessionService struct {
	checkout *CheckoutService
	store    SessionStore
	logger   *zap.Logger
}

func NewSessionService(checkout *CheckoutService, store SessionStore, logger *zap.Logger) *SessionService {
	return &SessionService{checkout: checkout, store: store, logger: logger}
}

// Start builds intents for every vendor group in the cart and persists
// them as a session queue. Vendor groups that failed intent creation are
// reported alongside and are not part of the queue.
func (s *SessionService) Start(ctx context.Context, customerID uuid.UUID) (*models.CheckoutSession, []VendorFailure, error) {
	results, failures, err := s.checkout.BuildIntents(ctx, customerID)
	if err != nil {
		return nil, failures, err
	}

	sess := &models.CheckoutSession{
		ID:         uuid.New().String(),
		CustomerID: customerID.String(),
		CreatedAt:  time.Now().UTC(),
	}
	for _, r := range results {
		sess.Intents = append(sess.Intents, models.SessionIntent{
			VendorID:     r.VendorID.String(),
			ClientSecret: r.ClientSecret,
			Amount:       r.Amount,
			Status:       models.IntentStatusPending,
		})
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, failures, err
	}
	return sess, failures, nil
}

// Next returns the first intent still awaiting confirmation, or nil when
// the queue is drained. A drained session is deleted along with serving
// the done marker instead of lingering until the TTL.
func (s *SessionService) Next(ctx context.Context, sessionID string, customerID uuid.UUID) (*models.SessionIntent, error) {
	sess, err := s.load(ctx, sessionID, customerID)
	if err != nil {
		return nil, err
	}
	next := sess.NextPending()
	if next == nil {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to delete finished checkout session",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}
	return next, nil
}

// RecordResult stores the confirmation outcome the browser reported for
// one vendor's intent. A failure keeps the intent pending (same client
// secret) until maxIntentAttempts is exhausted.
func (s *SessionService) RecordResult(ctx context.Context, sessionID string, customerID uuid.UUID, vendorID, status, message string) (*models.CheckoutSession, error) {
	sess, err := s.load(ctx, sessionID, customerID)
	if err != nil {
		return nil, err
	}

	for i := range sess.Intents {
		intent := &sess.Intents[i]
		if intent.VendorID != vendorID {
			continue
		}
		switch status {
		case models.IntentStatusSucceeded:
			intent.Status = models.IntentStatusSucceeded
			intent.LastError = ""
		case models.IntentStatusFailed:
			intent.Attempts++
			intent.LastError = message
			if intent.Attempts >= maxIntentAttempts {
				intent.Status = models.IntentStatusFailed
			}
			s.logger.Warn("Checkout confirmation attempt failed",
				zap.String("session_id", sess.ID),
				zap.String("vendor_id", vendorID),
				zap.Int("attempts", intent.Attempts),
				zap.String("message", message),
			)
		}
		if err := s.store.Save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (s *SessionService) load(ctx context.Context, sessionID string, customerID uuid.UUID) (*models.CheckoutSession, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Sessions are customer-scoped; a mismatch behaves like a miss.
	if sess.CustomerID != customerID.String() {
		return nil, repository.ErrSessionNotFound
	}
	return sess, nil
}
