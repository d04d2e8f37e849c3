package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/account"
	"github.com/stripe/stripe-go/v80/accountlink"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/transfer"
	"github.com/stripe/stripe-go/v80/webhook"
)

// stripeCallTimeout bounds every Stripe API round-trip so a hung call
// surfaces as a failure instead of stalling the handler.
const stripeCallTimeout = 10 * time.Second

// CreateIntentParams describes a destination charge for one vendor group.
type CreateIntentParams struct {
	Amount         int64
	Currency       string
	ApplicationFee int64
	Destination    string
	Metadata       map[string]string
}

// CreateTransferParams describes a fee transfer. IdempotencyKey must be
// stable across retries of the same logical transfer so Stripe collapses
// duplicate attempts into one money movement.
type CreateTransferParams struct {
	Amount         int64
	Currency       string
	Destination    string
	TransferGroup  string
	IdempotencyKey string
}

// StripeGateway is the Stripe surface the services depend on, kept behind
// an interface so tests can substitute a mock.
type StripeGateway interface {
	CreatePaymentIntent(ctx context.Context, p CreateIntentParams) (*stripe.PaymentIntent, error)
	CreateTransfer(ctx context.Context, p CreateTransferParams) (*stripe.Transfer, error)
	CreateExpressAccount(ctx context.Context) (*stripe.Account, error)
	CreateAccountLink(ctx context.Context, accountID, returnURL, refreshURL string) (*stripe.AccountLink, error)
	RetrieveAccount(ctx context.Context, accountID string) (*stripe.Account, error)
	ParseWebhook(r *http.Request) (stripe.Event, error)
}

// StripeService implements StripeGateway against the real Stripe SDK.
type StripeService struct {
	SecretKey  string
	WebhookKey string
}

func NewStripeService(secretKey, webhookKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{SecretKey: secretKey, WebhookKey: webhookKey}
}

func (s *StripeService) CreatePaymentIntent(ctx context.Context, p CreateIntentParams) (*stripe.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, stripeCallTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(p.Amount),
		Currency:             stripe.String(p.Currency),
		ApplicationFeeAmount: stripe.Int64(p.ApplicationFee),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(p.Destination),
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	return paymentintent.New(params)
}

func (s *StripeService) CreateTransfer(ctx context.Context, p CreateTransferParams) (*stripe.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, stripeCallTimeout)
	defer cancel()

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(p.Amount),
		Currency:      stripe.String(p.Currency),
		Destination:   stripe.String(p.Destination),
		TransferGroup: stripe.String(p.TransferGroup),
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	return transfer.New(params)
}

func (s *StripeService) CreateExpressAccount(ctx context.Context) (*stripe.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, stripeCallTimeout)
	defer cancel()

	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		BusinessType: stripe.String("individual"),
	}
	params.Context = ctx
	return account.New(params)
}

func (s *StripeService) CreateAccountLink(ctx context.Context, accountID, returnURL, refreshURL string) (*stripe.AccountLink, error) {
	ctx, cancel := context.WithTimeout(ctx, stripeCallTimeout)
	defer cancel()

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		ReturnURL:  stripe.String(returnURL),
		RefreshURL: stripe.String(refreshURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	return accountlink.New(params)
}

func (s *StripeService) RetrieveAccount(ctx context.Context, accountID string) (*stripe.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, stripeCallTimeout)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = ctx
	return account.GetByID(accountID, params)
}

// ParseWebhook verifies the Stripe-Signature header against the raw body
// and returns the decoded event. Verification fails closed.
func (s *StripeService) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, s.WebhookKey)
}
