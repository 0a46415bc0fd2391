package repositories

import (
	"errors"
	"fmt"
	"time"

	"kriya/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists a new order aggregate, generating an ID if absent.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.Version = 1
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with its line items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves a page of orders placed by the given customer,
// newest first.
func (r *GORMOrderRepository) GetByUser(userID string, page Pagination) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByProductOwner retrieves a page of orders containing at least one line
// item fulfilled by the given artisan. The artisan id is frozen onto each line
// item at order time, so this is a plain join rather than a catalog lookup.
func (r *GORMOrderRepository) GetByProductOwner(artisanID string, page Pagination) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.artisan_id = ?", artisanID).
		Distinct("orders.*").
		Order("orders.created_at DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for artisan %s: %w", artisanID, err)
	}
	return orders, nil
}

// Update replaces the aggregate's mutable fields, guarded by an optimistic
// version check. A concurrent update of the same order bumps the version first
// and this write then affects zero rows, surfacing models.ErrVersionConflict
// instead of silently overwriting.
func (r *GORMOrderRepository) Update(order *models.Order) error {
	currentVersion := order.Version
	order.Version = currentVersion + 1
	order.UpdatedAt = time.Now()

	res := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, currentVersion).
		Select("total_amount", "shipping_cost", "tax_amount", "final_amount",
			"order_status", "payment_status", "payment_details",
			"tracking_number", "order_notes", "version", "updated_at").
		Updates(order)
	if res.Error != nil {
		order.Version = currentVersion
		return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		order.Version = currentVersion
		var exists int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", order.ID).Count(&exists).Error; err == nil && exists == 0 {
			return models.ErrOrderNotFound
		}
		return models.ErrVersionConflict
	}
	return nil
}
