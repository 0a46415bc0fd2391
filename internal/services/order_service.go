package services

import (
	"fmt"
	"log"

	"kriya/internal/models"
	"kriya/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker.
// *rabbitmq.Client satisfies it; tests substitute a double.
type EventPublisher interface {
	PublishEvent(routingKey string, payload map[string]any) error
}

// OrderConfig carries the pricing tunables injected from configuration.
type OrderConfig struct {
	TaxRate      float64
	ShippingFlat float64
}

// OrderItemRequest is a requested line item in a checkout: which product and
// how many. The price is never client-supplied; it is read from the catalog
// during validation.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method" validate:"required"`
}

// OrderService handles business logic related to orders: item validation,
// totals, placement, fulfillment transitions, and cancellation.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
	cfg         OrderConfig
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher, cfg OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
		cfg:         cfg,
	}
}

// validateItems resolves every requested product and freezes its current price
// and owning artisan into a line item. All-or-nothing: every rejection is
// collected and the whole batch fails if any item is invalid.
func (s *OrderService) validateItems(items []OrderItemRequest) ([]models.OrderItem, error) {
	var issues []error
	validated := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		if item.Quantity < 1 {
			issues = append(issues, fmt.Errorf("quantity for product %s must be at least 1", item.ProductID))
			continue
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		if !product.IsApproved {
			issues = append(issues, &models.ProductNotApprovedError{ProductID: product.ID})
			continue
		}
		if product.Stock < item.Quantity {
			issues = append(issues, &models.InsufficientStockError{
				ProductID: product.ID,
				Requested: item.Quantity,
				Available: product.Stock,
			})
			continue
		}
		validated = append(validated, models.OrderItem{
			ProductID: product.ID,
			ArtisanID: product.OwnerID,
			Quantity:  item.Quantity,
			Price:     product.Price, // frozen at order time
		})
	}

	if len(issues) > 0 {
		return nil, &models.ValidationError{Issues: issues}
	}
	return validated, nil
}

// PlaceOrder runs the checkout flow: validate items, compute totals, persist
// the order in pending/pending, and publish order.created. Stock is not
// reserved here; the decrement happens atomically when the payment settles.
func (s *OrderService) PlaceOrder(userID string, req PlaceOrderRequest) (*models.Order, error) {
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, &models.ValidationError{
			Issues: []error{fmt.Errorf("unsupported payment method: %s", req.PaymentMethod)},
		}
	}

	items, err := s.validateItems(req.Items)
	if err != nil {
		return nil, err
	}

	totals := ComputeOrderTotals(items, s.cfg.ShippingFlat, s.cfg.TaxRate)

	order := &models.Order{
		UserID:        userID,
		Items:         items,
		TotalAmount:   totals.TotalAmount,
		ShippingCost:  totals.ShippingCost,
		TaxAmount:     totals.TaxAmount,
		FinalAmount:   totals.FinalAmount,
		ShippingAddr:  req.ShippingAddress,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publish("order.created", map[string]any{
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"order_status":   order.OrderStatus,
		"payment_method": order.PaymentMethod,
		"final_amount":   order.FinalAmount,
	})

	return order, nil
}

// UpdateFulfillmentStatus advances an order's fulfillment state on behalf of an
// artisan. Only an artisan who owns a product in the order may act; illegal
// edges are rejected by the transition table before anything is persisted.
// Tracking number and notes, when supplied, are recorded alongside shipment.
func (s *OrderService) UpdateFulfillmentStatus(orderID, actorID string, newStatus models.OrderStatus, trackingNumber, notes string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if !order.ContainsArtisan(actorID) {
		return nil, models.ErrForbidden
	}

	if err := order.TransitionOrderStatus(newStatus); err != nil {
		return nil, err
	}
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if notes != "" {
		order.OrderNotes = notes
	}

	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publish("order.status_updated", map[string]any{
		"order_id":     order.ID,
		"order_status": order.OrderStatus,
		"actor_id":     actorID,
	})

	return order, nil
}

// CancelOrder cancels an order on behalf of its owning customer. Cancellation
// is only available while the order is still pending; anything later must go
// through the fulfilling artisan.
func (s *OrderService) CancelOrder(orderID, actorID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != actorID {
		return nil, models.ErrForbidden
	}
	if order.OrderStatus != models.OrderStatusPending {
		return nil, &models.InvalidStatusTransitionError{
			From: string(order.OrderStatus),
			To:   string(models.OrderStatusCancelled),
		}
	}

	if err := order.TransitionOrderStatus(models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.publish("order.cancelled", map[string]any{
		"order_id": order.ID,
		"user_id":  order.UserID,
	})

	return order, nil
}

// GetOrderByID retrieves an order, restricted to its owning customer, a
// fulfilling artisan, or an admin. Anyone else gets ErrForbidden with no
// detail about the order.
func (s *OrderService) GetOrderByID(orderID, actorID, role string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin || order.UserID == actorID || order.ContainsArtisan(actorID) {
		return order, nil
	}
	return nil, models.ErrForbidden
}

// GetOrdersForUser retrieves a page of the customer's own orders.
func (s *OrderService) GetOrdersForUser(userID string, page repositories.Pagination) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID, page)
}

// GetOrdersForArtisan retrieves a page of orders the artisan fulfills.
func (s *OrderService) GetOrdersForArtisan(artisanID string, page repositories.Pagination) ([]models.Order, error) {
	return s.orderRepo.GetByProductOwner(artisanID, page)
}

// publish sends a lifecycle event, logging rather than failing the business
// operation when the broker is unavailable.
func (s *OrderService) publish(routingKey string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(routingKey, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
