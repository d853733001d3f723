package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"terra-storefront/internal/domain"
	"terra-storefront/internal/infrastructure/payment"
	"terra-storefront/internal/repo"
)

// CheckoutResult is what initiating a checkout hands back to the client:
// the created order and the gateway URL to redirect the browser to.
type CheckoutResult struct {
	RedirectURL string             `json:"url"`
	Order       *domain.Order      `json:"order"`
	Lines       []domain.OrderLine `json:"items"`
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, userID uuid.UUID, contact domain.ContactDetails) (*CheckoutResult, error)
	ConfirmPayment(ctx context.Context, payload []byte, sigHeader string) error
}

type checkoutService struct {
	db         *sql.DB
	cartRepo   repo.CartRepo
	orderRepo  repo.OrderRepo
	gateway    payment.Gateway
	verifier   *payment.Verifier
	successURL string
	cancelURL  string
	logger     *slog.Logger
}

func NewCheckoutService(
	db *sql.DB,
	cartRepo repo.CartRepo,
	orderRepo repo.OrderRepo,
	gateway payment.Gateway,
	verifier *payment.Verifier,
	successURL, cancelURL string,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutService{
		db:         db,
		cartRepo:   cartRepo,
		orderRepo:  orderRepo,
		gateway:    gateway,
		verifier:   verifier,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     logger,
	}
}

// InitiateCheckout snapshots the cart, persists the order atomically,
// clears the snapshotted cart lines, and only then asks the gateway for a
// payment session. The order/cart ordering is the critical invariant:
// clearing first could lose an order, clearing late could double-charge.
func (s *checkoutService) InitiateCheckout(
	ctx context.Context,
	userID uuid.UUID,
	contact domain.ContactDetails,
) (*CheckoutResult, error) {

	// 1. Authoritative snapshot. Cart mutations after this read do not
	// affect the order being built.
	snapshot, err := s.cartRepo.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(snapshot) == 0 {
		return nil, ErrEmptyCart
	}

	// 2. Exact decimal total.
	total := decimal.Zero
	for _, line := range snapshot {
		total = total.Add(line.Subtotal())
	}

	now := time.Now()
	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Address:   contact.Address,
		Landmark:  contact.Landmark,
		Total:     total,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	lines := make([]domain.OrderLine, 0, len(snapshot))
	for _, line := range snapshot {
		lines = append(lines, domain.OrderLine{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	// 3. Order and all of its lines in one transaction.
	if err := s.persistOrder(ctx, order, lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderPersistence, err)
	}

	// 4. Clear the snapshotted lines, only after the commit. Lines added
	// concurrently since the snapshot survive for the next checkout.
	productIDs := make([]uuid.UUID, 0, len(snapshot))
	for _, line := range snapshot {
		productIDs = append(productIDs, line.ProductID)
	}
	if err := s.cartRepo.ClearLines(ctx, userID, productIDs); err != nil {
		// The order is committed; a stale cart line is recoverable, a lost
		// order is not. Log and keep going.
		s.logger.Warn("failed to clear cart after order creation",
			"order_id", order.ID, "error", err)
	}

	result := &CheckoutResult{Order: order, Lines: lines}

	// 5. Payment session. On failure the order stays pending for the
	// reconciliation sweep or a manual retry.
	session, err := s.gateway.CreateSession(ctx, &payment.SessionRequest{
		LineItems:  toLineItems(lines),
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
		Metadata:   map[string]string{"orderId": order.ID.String()},
	})
	if err != nil {
		s.logger.Error("payment session creation failed",
			"order_id", order.ID, "error", err)
		return result, fmt.Errorf("%w: %v", ErrPaymentSession, err)
	}

	if err := s.orderRepo.SetPaymentSession(ctx, order.ID, session.ID); err != nil {
		s.logger.Warn("failed to record payment session id",
			"order_id", order.ID, "session_id", session.ID, "error", err)
	}
	order.PaymentSessionID = session.ID

	result.RedirectURL = session.URL
	return result, nil
}

func (s *checkoutService) persistOrder(ctx context.Context, order *domain.Order, lines []domain.OrderLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return err
	}
	if err := s.orderRepo.CreateOrderLines(ctx, tx, lines); err != nil {
		return err
	}
	return tx.Commit()
}

// ConfirmPayment handles the gateway's asynchronous completion event.
// Authentication first, then an idempotent status flip; replays and
// unknown orders are absorbed, not errored.
func (s *checkoutService) ConfirmPayment(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.verifier.VerifyEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	if event.Type != payment.EventCheckoutCompleted {
		s.logger.Debug("ignoring gateway event", "type", event.Type)
		return nil
	}

	orderID, err := uuid.Parse(event.Object.Metadata["orderId"])
	if err != nil {
		s.logger.Warn("completed event without usable order reference",
			"session_id", event.Object.ID)
		return nil
	}

	changed, err := s.orderRepo.MarkPaid(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	if !changed {
		// Duplicate delivery, or the order never existed here. The
		// gateway must not retry forever on either.
		s.logger.Info("payment confirmation absorbed with no status change",
			"order_id", orderID)
		return nil
	}

	s.logger.Info("order marked paid", "order_id", orderID)
	return nil
}

func toLineItems(lines []domain.OrderLine) []payment.LineItem {
	items := make([]payment.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, payment.LineItem{
			Name:       l.Title,
			UnitAmount: l.UnitPrice.Shift(2).IntPart(),
			Quantity:   l.Quantity,
		})
	}
	return items
}
