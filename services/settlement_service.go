package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harvestlane/marketplace/models"
	"github.com/harvestlane/marketplace/repository"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// EventPublisher emits settlement events for downstream consumers.
type EventPublisher interface {
	SendOrderSettled(event models.OrderSettledEvent) error
}

// SettlementService turns a confirmed payment intent into a durable order
// with priced line items, transfers the platform fee, and removes the
// settled items from the cart.
// It is safe under webhook redelivery: the unique index on the payment
// intent id guarantees at most one order per confirmation, and redelivery
// only retries the steps that have not completed yet.
type SettlementService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	stripe   StripeGateway

	platformAccountID string
	feeRate           float64
	currency          string

	publisher EventPublisher // nil when event publishing is disabled
	logger    *zap.Logger
}

func NewSettlementService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	stripe StripeGateway,
	platformAccountID string,
	feeRate float64,
	currency string,
	publisher EventPublisher,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		orders:            orders,
		products:          products,
		carts:             carts,
		stripe:            stripe,
		platformAccountID: platformAccountID,
		feeRate:           feeRate,
		currency:          currency,
		publisher:         publisher,
		logger:            logger,
	}
}

type intentMetadata struct {
	VendorID   uuid.UUID
	CustomerID uuid.UUID
	Items      []models.IntentMetadataItem
}

func parseIntentMetadata(pi *stripe.PaymentIntent) (*intentMetadata, error) {
	vendorID, err := uuid.Parse(pi.Metadata["vendor_id"])
	if err != nil {
		return nil, fmt.Errorf("vendor_id: %w", err)
	}
	customerID, err := uuid.Parse(pi.Metadata["customer_id"])
	if err != nil {
		return nil, fmt.Errorf("customer_id: %w", err)
	}
	var items []models.IntentMetadataItem
	if err := json.Unmarshal([]byte(pi.Metadata["items"]), &items); err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("items: empty")
	}
	return &intentMetadata{VendorID: vendorID, CustomerID: customerID, Items: items}, nil
}

// HandlePaymentSucceeded settles one confirmed payment intent. All data
// it acts on comes from the signature-verified event payload.
func (s *SettlementService) HandlePaymentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	meta, err := parseIntentMetadata(pi)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadEventMetadata, err)
	}

	currency := string(pi.Currency)
	if currency == "" {
		currency = s.currency
	}

	settledIDs := settledProductIDs(meta.Items)

	existing, err := s.orders.FindByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		return fmt.Errorf("order lookup: %w", err)
	}
	if existing != nil {
		return s.resumeSettlement(ctx, existing, currency, settledIDs)
	}

	items := s.priceItems(ctx, meta.Items)
	var total int64
	for _, item := range items {
		total += item.UnitPrice * int64(item.Quantity)
	}

	order := &models.Order{
		ID:                    uuid.New(),
		CustomerID:            meta.CustomerID,
		VendorID:              meta.VendorID,
		StripePaymentIntentID: pi.ID,
		TotalAmount:           total,
		PlatformFeeAmount:     PlatformFee(total, s.feeRate),
		Status:                models.OrderStatusFeePending,
	}

	if total != pi.Amount {
		// Prices drifted between intent creation and settlement; the
		// authoritative store still wins for the recorded order.
		s.logger.Warn("Settled total differs from charged amount",
			zap.String("payment_intent_id", pi.ID),
			zap.Int64("charged", pi.Amount),
			zap.Int64("settled", total),
		)
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			// A concurrent delivery won the insert race; its handler owns
			// the remaining steps.
			s.logger.Info("Duplicate settlement event ignored",
				zap.String("payment_intent_id", pi.ID))
			return nil
		}
		return fmt.Errorf("order creation: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.Int64("platform_fee", order.PlatformFeeAmount),
	)

	if err := s.ensureFeeTransfer(ctx, order, currency); err != nil {
		// The order stays committed; the processor redelivers and only
		// the transfer is retried.
		return err
	}

	s.removeSettledItems(ctx, order, settledIDs)
	s.publishSettled(order, pi.ID, currency)
	return nil
}

// resumeSettlement finishes the steps a previous delivery did not reach.
// A fully settled order makes redelivery a no-op.
func (s *SettlementService) resumeSettlement(ctx context.Context, order *models.Order, currency string, settledIDs []uuid.UUID) error {
	if order.StripeTransferID == nil {
		if err := s.ensureFeeTransfer(ctx, order, currency); err != nil {
			return err
		}
		s.publishSettled(order, order.StripePaymentIntentID, currency)
	} else {
		s.logger.Info("Settlement event redelivered for settled order",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_intent_id", order.StripePaymentIntentID),
		)
	}
	if !order.CartCleared {
		s.removeSettledItems(ctx, order, settledIDs)
	}
	return nil
}

// settledProductIDs extracts the product ids this intent actually charged.
// Unparseable ids were already flagged during pricing and are skipped.
func settledProductIDs(items []models.IntentMetadataItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if id, err := uuid.Parse(item.ProductID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// priceItems re-reads each product's authoritative price. A missing
// product prices its line at 0 and flags it; the charge is already
// captured, so settlement reconciles rather than aborts.
func (s *SettlementService) priceItems(ctx context.Context, metaItems []models.IntentMetadataItem) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(metaItems))
	for _, mi := range metaItems {
		item := models.OrderItem{Quantity: mi.Quantity}

		productID, err := uuid.Parse(mi.ProductID)
		if err == nil {
			item.ProductID = productID
			if product, perr := s.products.FindByID(ctx, productID); perr == nil {
				item.UnitPrice = product.Price
			} else {
				err = perr
			}
		}
		if err != nil {
			item.PriceMissing = true
			s.logger.Warn("Product missing during settlement pricing",
				zap.String("product_id", mi.ProductID),
				zap.Error(err),
			)
		}
		items = append(items, item)
	}
	return items
}

func (s *SettlementService) ensureFeeTransfer(ctx context.Context, order *models.Order, currency string) error {
	transferID := ""
	if order.PlatformFeeAmount > 0 {
		// The idempotency key is derived from the order id so concurrent
		// redeliveries racing on the same unrecorded transfer collapse to
		// one transfer at Stripe.
		tr, err := s.stripe.CreateTransfer(ctx, CreateTransferParams{
			Amount:         order.PlatformFeeAmount,
			Currency:       currency,
			Destination:    s.platformAccountID,
			TransferGroup:  "order_" + order.ID.String(),
			IdempotencyKey: "order_" + order.ID.String() + "_fee",
		})
		if err != nil {
			s.logger.Error("Platform fee transfer failed",
				zap.String("order_id", order.ID.String()),
				zap.Int64("fee", order.PlatformFeeAmount),
				zap.Error(err),
			)
			return fmt.Errorf("%w: fee transfer: %v", ErrProcessor, err)
		}
		transferID = tr.ID
	}
	if err := s.orders.SetTransferID(ctx, order.ID, transferID); err != nil {
		return fmt.Errorf("recording fee transfer: %w", err)
	}
	order.StripeTransferID = &transferID
	order.Status = models.OrderStatusCompleted
	return nil
}

// removeSettledItems deletes only the cart rows this intent charged, so
// another vendor's rows stay in the cart until that vendor's own intent
// settles. Best-effort: the charge has succeeded, so a stale cart is a
// recoverable inconsistency, not a financial one.
func (s *SettlementService) removeSettledItems(ctx context.Context, order *models.Order, productIDs []uuid.UUID) {
	if err := s.carts.RemoveItems(ctx, order.CustomerID, productIDs); err != nil {
		s.logger.Warn("Cart cleanup failed after settlement",
			zap.String("order_id", order.ID.String()),
			zap.String("customer_id", order.CustomerID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.orders.MarkCartCleared(ctx, order.ID); err != nil {
		s.logger.Warn("Failed to record cart cleanup",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}
	order.CartCleared = true
}

func (s *SettlementService) publishSettled(order *models.Order, paymentIntentID, currency string) {
	if s.publisher == nil {
		return
	}
	event := models.OrderSettledEvent{
		Type:              "order_settled",
		OrderID:           order.ID.String(),
		CustomerID:        order.CustomerID.String(),
		VendorID:          order.VendorID.String(),
		PaymentIntentID:   paymentIntentID,
		TotalAmount:       order.TotalAmount,
		PlatformFeeAmount: order.PlatformFeeAmount,
		Currency:          currency,
		Timestamp:         time.Now().UTC(),
	}
	if err := s.publisher.SendOrderSettled(event); err != nil {
		s.logger.Warn("Failed to publish order settled event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
