package repositories

import (
	"sort"
	"sync"
	"time"

	"kriya/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It enforces the same optimistic version check as the GORM implementation so
// concurrency behavior is identical under test.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.Version = 1
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	copied := cloneOrder(order)
	return &copied, nil
}

// GetByUser returns a page of orders placed by the given customer, newest first.
func (r *MockOrderRepository) GetByUser(userID string, page Pagination) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			matched = append(matched, cloneOrder(order))
		}
	}
	return paginateOrders(matched, page), nil
}

// GetByProductOwner returns a page of orders containing at least one line item
// belonging to the given artisan.
func (r *MockOrderRepository) GetByProductOwner(artisanID string, page Pagination) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Order
	for _, order := range r.orders {
		if order.ContainsArtisan(artisanID) {
			matched = append(matched, cloneOrder(order))
		}
	}
	return paginateOrders(matched, page), nil
}

// Update replaces the stored aggregate if the caller's version matches the
// stored one; a stale version fails with models.ErrVersionConflict.
func (r *MockOrderRepository) Update(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return models.ErrOrderNotFound
	}
	if stored.Version != order.Version {
		return models.ErrVersionConflict
	}
	order.Version++
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

func paginateOrders(orders []models.Order, page Pagination) []models.Order {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	offset := page.Offset()
	if offset >= len(orders) {
		return []models.Order{}
	}
	end := offset + page.Limit()
	if end > len(orders) {
		end = len(orders)
	}
	return orders[offset:end]
}

// cloneOrder deep-copies the aggregate so callers never share slices or maps
// with the stored copy.
func cloneOrder(order models.Order) models.Order {
	copied := order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	if order.PaymentDetails != nil {
		copied.PaymentDetails = make(map[string]any, len(order.PaymentDetails))
		for k, v := range order.PaymentDetails {
			copied.PaymentDetails[k] = v
		}
	}
	return copied
}
