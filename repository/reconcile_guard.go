package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReconcileGuard dedups onboarding-return reconciliations server-side.
// The stored value is a hash of the vendor's external account state; a
// repeat call with unchanged state is skipped without touching the DB.
type ReconcileGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReconcileGuard(client *redis.Client, ttl time.Duration) *ReconcileGuard {
	return &ReconcileGuard{client: client, ttl: ttl}
}

func (g *ReconcileGuard) key(vendorID string) string {
	return fmt.Sprintf("reconcile:vendor:%s", vendorID)
}

// Seen reports whether the vendor's account state hash matches the last
// reconciled one.
func (g *ReconcileGuard) Seen(ctx context.Context, vendorID, stateHash string) (bool, error) {
	val, err := g.client.Get(ctx, g.key(vendorID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == stateHash, nil
}

// Mark records the state hash after a successful reconciliation.
func (g *ReconcileGuard) Mark(ctx context.Context, vendorID, stateHash string) error {
	return g.client.Set(ctx, g.key(vendorID), stateHash, g.ttl).Err()
}
