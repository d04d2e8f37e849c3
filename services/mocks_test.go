package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"gorm.io/gorm"
)

// --- cart repository ---

type cartRemoval struct {
	customerID uuid.UUID
	productIDs []uuid.UUID
}

type mockCartRepo struct {
	mu        sync.Mutex
	lines     []models.CartLine
	removeErr error
	removals  []cartRemoval
}

func (m *mockCartRepo) LinesWithProducts(_ context.Context, _ uuid.UUID) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartLine(nil), m.lines...), nil
}

func (m *mockCartRepo) Upsert(_ context.Context, _, _ uuid.UUID, _ int) error { return nil }

func (m *mockCartRepo) RemoveItem(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *mockCartRepo) RemoveItems(_ context.Context, customerID uuid.UUID, productIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removals = append(m.removals, cartRemoval{customerID: customerID, productIDs: productIDs})

	drop := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := make([]models.CartLine, 0, len(m.lines))
	for _, line := range m.lines {
		if !drop[line.ProductID] {
			kept = append(kept, line)
		}
	}
	m.lines = kept
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, _ uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	return nil
}

// --- product repository ---

type mockProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func (m *mockProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// --- order repository ---

type mockOrderRepo struct {
	mu          sync.Mutex
	byIntent    map[string]*models.Order
	items       map[uuid.UUID][]models.OrderItem
	createCalls int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		byIntent: make(map[string]*models.Order),
		items:    make(map[uuid.UUID][]models.OrderItem),
	}
}

func (m *mockOrderRepo) FindByPaymentIntentID(_ context.Context, piID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byIntent[piID]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, nil
}

func (m *mockOrderRepo) CreateWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.byIntent[order.StripePaymentIntentID]; ok {
		return repository.ErrDuplicateOrder
	}
	stored := *order
	m.byIntent[order.StripePaymentIntentID] = &stored
	for i := range items {
		items[i].OrderID = order.ID
	}
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderRepo) SetTransferID(_ context.Context, orderID uuid.UUID, transferID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byIntent {
		if o.ID == orderID {
			// First writer wins, matching the conditional UPDATE.
			if o.StripeTransferID == nil {
				id := transferID
				o.StripeTransferID = &id
				o.Status = models.OrderStatusCompleted
			}
			return nil
		}
	}
	return errors.New("order not found")
}

func (m *mockOrderRepo) MarkCartCleared(_ context.Context, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byIntent {
		if o.ID == orderID {
			o.CartCleared = true
			return nil
		}
	}
	return errors.New("order not found")
}

func (m *mockOrderRepo) FindByCustomerID(_ context.Context, _ uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) FindByVendorID(_ context.Context, _ uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	return nil, 0, nil
}

// --- vendor account repository ---

type mockVendorRepo struct {
	accounts map[uuid.UUID]*models.VendorPaymentAccount
	updates  int
}

func newMockVendorRepo() *mockVendorRepo {
	return &mockVendorRepo{accounts: make(map[uuid.UUID]*models.VendorPaymentAccount)}
}

func (m *mockVendorRepo) FindByVendorID(_ context.Context, vendorID uuid.UUID) (*models.VendorPaymentAccount, error) {
	if a, ok := m.accounts[vendorID]; ok {
		return a, nil
	}
	return nil, nil
}

func (m *mockVendorRepo) Create(_ context.Context, account *models.VendorPaymentAccount) error {
	m.accounts[account.VendorID] = account
	return nil
}

func (m *mockVendorRepo) UpdateFlags(_ context.Context, stripeAccountID string, charges, payouts, details bool) error {
	m.updates++
	for _, a := range m.accounts {
		if a.StripeAccountID == stripeAccountID {
			a.ChargesEnabled = charges
			a.PayoutsEnabled = payouts
			a.DetailsSubmitted = details
		}
	}
	return nil
}

// --- stripe gateway ---

type mockStripe struct {
	mu sync.Mutex

	intents     []CreateIntentParams
	intentErr   map[string]error // keyed by destination account
	intentSeq   int
	transfers   []CreateTransferParams
	transferErr error
	account     *stripe.Account
	accountErr  error
	link        string
}

func newMockStripe() *mockStripe {
	return &mockStripe{intentErr: make(map[string]error)}
}

func (m *mockStripe) CreatePaymentIntent(_ context.Context, p CreateIntentParams) (*stripe.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.intentErr[p.Destination]; err != nil {
		return nil, err
	}
	m.intents = append(m.intents, p)
	m.intentSeq++
	return &stripe.PaymentIntent{
		ID:           uuid.NewString(),
		ClientSecret: uuid.NewString(),
		Amount:       p.Amount,
	}, nil
}

func (m *mockStripe) CreateTransfer(_ context.Context, p CreateTransferParams) (*stripe.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transferErr != nil {
		return nil, m.transferErr
	}
	m.transfers = append(m.transfers, p)
	return &stripe.Transfer{ID: "tr_" + uuid.NewString()}, nil
}

func (m *mockStripe) CreateExpressAccount(_ context.Context) (*stripe.Account, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	return &stripe.Account{ID: "acct_" + uuid.NewString()}, nil
}

func (m *mockStripe) CreateAccountLink(_ context.Context, accountID, returnURL, refreshURL string) (*stripe.AccountLink, error) {
	return &stripe.AccountLink{URL: m.link}, nil
}

func (m *mockStripe) RetrieveAccount(_ context.Context, accountID string) (*stripe.Account, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	return m.account, nil
}

func (m *mockStripe) ParseWebhook(_ *http.Request) (stripe.Event, error) {
	return stripe.Event{}, nil
}

// --- session store ---

type mockSessionStore struct {
	sessions map[string]*models.CheckoutSession
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*models.CheckoutSession)}
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*models.CheckoutSession, error) {
	if s, ok := m.sessions[id]; ok {
		copied := *s
		copied.Intents = append([]models.SessionIntent(nil), s.Intents...)
		return &copied, nil
	}
	return nil, repository.ErrSessionNotFound
}

func (m *mockSessionStore) Save(_ context.Context, sess *models.CheckoutSession) error {
	stored := *sess
	stored.Intents = append([]models.SessionIntent(nil), sess.Intents...)
	m.sessions[sess.ID] = &stored
	return nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

// --- reconcile guard ---

type mockGuard struct {
	hashes map[string]string
}

func newMockGuard() *mockGuard {
	return &mockGuard{hashes: make(map[string]string)}
}

func (m *mockGuard) Seen(_ context.Context, vendorID, stateHash string) (bool, error) {
	return m.hashes[vendorID] == stateHash, nil
}

func (m *mockGuard) Mark(_ context.Context, vendorID, stateHash string) error {
	m.hashes[vendorID] = stateHash
	return nil
}

// --- event publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []models.OrderSettledEvent
}

func (m *mockPublisher) SendOrderSettled(event models.OrderSettledEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}
