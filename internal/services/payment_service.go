package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"kriya/internal/models"
	"kriya/internal/repositories"
	"kriya/pkg/payments"
)

// PaymentProcessor is the injected payment-provider client.
// *payments.StripeClient satisfies it in production; tests substitute a double.
type PaymentProcessor interface {
	CreateTransaction(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*payments.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*payments.Transaction, error)
	RefundTransaction(ctx context.Context, transactionID string) error
}

// PaymentIntent is returned to the client so it can complete payment
// out-of-band with the processor.
type PaymentIntent struct {
	TransactionID string `json:"transaction_id"`
	ClientSecret  string `json:"client_secret"`
}

// ReconcileRequest reports a payment attempt's outcome back to the order.
// The transaction id comes from the processor callback (or the client's poll)
// and is verified against the processor before anything is committed.
type ReconcileRequest struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome" validate:"required,oneof=succeeded failed"`
	Reason        string `json:"reason,omitempty"`
}

// PaymentService bridges an order's pending payment to the processor and
// reconciles the processor's verdict into order state exactly once.
type PaymentService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	processor   PaymentProcessor
	events      EventPublisher
	currency    string
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, processor PaymentProcessor, events EventPublisher, currency string) *PaymentService {
	if currency == "" {
		currency = "inr"
	}
	return &PaymentService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		processor:   processor,
		events:      events,
		currency:    currency,
	}
}

// toMinorUnits converts a decimal currency amount to the processor's integer
// minor units. Conversion happens only at this boundary.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateIntent opens a processor transaction for the order's payment. The
// amount must be positive and must match the order's final amount, and the
// payment must still be pending: an already-settled order can never get a
// second intent. A failed payment is first moved back to pending, which is the
// retry edge of the payment table. The order itself is only persisted when
// that retry transition applies; a successful intent alone never mutates it.
func (s *PaymentService) CreateIntent(ctx context.Context, orderID, actorID string, amount float64) (*PaymentIntent, error) {
	if amount <= 0 {
		return nil, &models.ValidationError{
			Issues: []error{fmt.Errorf("payment amount must be positive, got %.2f", amount)},
		}
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actorID {
		return nil, models.ErrForbidden
	}
	if order.PaymentMethod == models.PaymentMethodCOD {
		return nil, &models.ValidationError{
			Issues: []error{errors.New("cash-on-delivery orders do not use payment intents")},
		}
	}
	if math.Abs(amount-order.FinalAmount) > 0.009 {
		return nil, &models.ValidationError{
			Issues: []error{fmt.Errorf("payment amount %.2f does not match order total %.2f", amount, order.FinalAmount)},
		}
	}

	if order.PaymentStatus == models.PaymentStatusFailed {
		// Retry: failed -> pending, then a fresh intent.
		if err := order.TransitionPaymentStatus(models.PaymentStatusPending); err != nil {
			return nil, err
		}
		if err := s.orderRepo.Update(order); err != nil {
			return nil, err
		}
	}
	if order.PaymentStatus != models.PaymentStatusPending {
		return nil, &models.InvalidPaymentTransitionError{
			From: string(order.PaymentStatus),
			To:   string(models.PaymentStatusPaid),
		}
	}

	tx, err := s.processor.CreateTransaction(ctx, toMinorUnits(order.FinalAmount), s.currency, map[string]string{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create processor transaction for order %s: %w", order.ID, err)
	}

	return &PaymentIntent{
		TransactionID: tx.TransactionID,
		ClientSecret:  tx.ClientSecret,
	}, nil
}

// Reconcile applies a payment outcome to the order. Both the synchronous
// status poll and the processor webhook land here, so the at-most-once
// guarantees hold regardless of which path reports first.
//
// A succeeded outcome is never taken on the caller's word: the processor's own
// record must agree, and the transaction must belong to this order.
// On verified success: stock is decremented per item (all-or-nothing, with
// compensating restock on failure), the payment moves to paid, and a pending
// order auto-advances to processing. Reconciling an already-paid order with
// another success signal is a no-op, not an error.
func (s *PaymentService) Reconcile(ctx context.Context, orderID string, req ReconcileRequest) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	switch req.Outcome {
	case payments.StatusSucceeded:
		return s.reconcileSuccess(ctx, order, req)
	case payments.StatusFailed:
		return s.reconcileFailure(order, req)
	default:
		return nil, &models.ValidationError{
			Issues: []error{fmt.Errorf("unknown payment outcome: %s", req.Outcome)},
		}
	}
}

func (s *PaymentService) reconcileSuccess(ctx context.Context, order *models.Order, req ReconcileRequest) (*models.Order, error) {
	// Idempotent: a second success signal for a settled order changes nothing.
	if order.PaymentStatus == models.PaymentStatusPaid {
		return order, nil
	}

	tx, err := s.processor.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up transaction %s: %w", req.TransactionID, err)
	}
	if tx.Status != payments.StatusSucceeded {
		return nil, fmt.Errorf("%w: processor reports transaction %s as %s",
			models.ErrPaymentVerificationFailed, req.TransactionID, tx.Status)
	}
	if tx.Metadata["order_id"] != order.ID {
		return nil, fmt.Errorf("%w: transaction %s does not belong to order %s",
			models.ErrPaymentVerificationFailed, req.TransactionID, order.ID)
	}

	// Decrement stock for every line item before committing paid. Any shortage
	// aborts the whole reconciliation: already-applied decrements are restocked
	// and the payment status is left untouched.
	applied := make([]models.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		if err := s.productRepo.DecrementStock(item.ProductID, item.Quantity); err != nil {
			s.restock(applied)
			return nil, err
		}
		applied = append(applied, item)
	}

	if err := order.TransitionPaymentStatus(models.PaymentStatusPaid); err != nil {
		s.restock(applied)
		return nil, err
	}
	if order.OrderStatus == models.OrderStatusPending {
		if err := order.TransitionOrderStatus(models.OrderStatusProcessing); err != nil {
			s.restock(applied)
			return nil, err
		}
	}
	order.MergePaymentDetails(map[string]any{
		"transaction_id": tx.TransactionID,
		"paid_at":        time.Now().UTC().Format(time.RFC3339),
	})

	if err := s.orderRepo.Update(order); err != nil {
		s.restock(applied)
		if errors.Is(err, models.ErrVersionConflict) {
			// Lost the race. If the winner already settled this payment, this
			// signal is a duplicate and the no-op contract applies.
			current, readErr := s.orderRepo.GetByID(order.ID)
			if readErr == nil && current.PaymentStatus == models.PaymentStatusPaid {
				return current, nil
			}
		}
		return nil, err
	}

	s.publish("payment.reconciled", map[string]any{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
		"transaction_id": tx.TransactionID,
	})

	return order, nil
}

func (s *PaymentService) reconcileFailure(order *models.Order, req ReconcileRequest) (*models.Order, error) {
	// A repeated failure signal for an already-failed payment changes nothing.
	if order.PaymentStatus == models.PaymentStatusFailed {
		return order, nil
	}

	if err := order.TransitionPaymentStatus(models.PaymentStatusFailed); err != nil {
		return nil, err
	}
	details := map[string]any{
		"failed_at": time.Now().UTC().Format(time.RFC3339),
	}
	if req.TransactionID != "" {
		details["transaction_id"] = req.TransactionID
	}
	if req.Reason != "" {
		details["failure_reason"] = req.Reason
	}
	order.MergePaymentDetails(details)

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publish("payment.reconciled", map[string]any{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	})

	return order, nil
}

// Refund drives a paid order to refunded: the processor refund is issued
// first, then the state change commits. Admin only.
func (s *PaymentService) Refund(ctx context.Context, orderID, role string) (*models.Order, error) {
	if role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		return nil, &models.InvalidPaymentTransitionError{
			From: string(order.PaymentStatus),
			To:   string(models.PaymentStatusRefunded),
		}
	}

	txID, _ := order.PaymentDetails["transaction_id"].(string)
	if txID == "" {
		return nil, fmt.Errorf("order %s has no recorded processor transaction", order.ID)
	}
	if err := s.processor.RefundTransaction(ctx, txID); err != nil {
		return nil, fmt.Errorf("failed to refund transaction %s: %w", txID, err)
	}

	if err := order.TransitionPaymentStatus(models.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	order.MergePaymentDetails(map[string]any{
		"refunded_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publish("payment.refunded", map[string]any{
		"order_id":       order.ID,
		"transaction_id": txID,
	})

	return order, nil
}

// restock compensates decrements from a reconciliation that did not commit.
func (s *PaymentService) restock(items []models.OrderItem) {
	for _, item := range items {
		if err := s.productRepo.IncrementStock(item.ProductID, item.Quantity); err != nil {
			log.Printf("Warning: failed to restock product %s after aborted reconciliation: %v", item.ProductID, err)
		}
	}
}

func (s *PaymentService) publish(routingKey string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(routingKey, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
