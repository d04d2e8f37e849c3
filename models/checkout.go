package models

import "time"

// Checkout session intent statuses
const (
	IntentStatusPending   = "pending"
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
)

// SessionIntent is one vendor's pending payment within a checkout session.
// The client secret is held only for the session's TTL so a retry can
// re-present the same intent instead of creating a new one.
type SessionIntent struct {
	VendorID     string `json:"vendor_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	Attempts     int    `json:"attempts"`
	LastError    string `json:"last_error,omitempty"`
}

// CheckoutSession is an explicit queue of per-vendor payment intents with
// per-intent status. Vendor groups are confirmed one at a time.
type CheckoutSession struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Intents    []SessionIntent `json:"intents"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NextPending returns the first intent still awaiting confirmation.
func (s *CheckoutSession) NextPending() *SessionIntent {
	for i := range s.Intents {
		if s.Intents[i].Status == IntentStatusPending {
			return &s.Intents[i]
		}
	}
	return nil
}
