package repositories

import (
	"kriya/internal/models"
)

// Pagination bounds list queries. Page is 1-based; zero values fall back to
// the first page with the default size.
type Pagination struct {
	Page     int
	PageSize int
}

const defaultPageSize = 20

// Limit returns the page size, bounded to something sane.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 || p.PageSize > 100 {
		return defaultPageSize
	}
	return p.PageSize
}

// Offset returns the row offset for the requested page.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// OrderRepository defines the interface for order aggregate persistence.
// Update must be atomic with respect to concurrent updates of the same order:
// implementations check the aggregate's Version and fail with
// models.ErrVersionConflict instead of applying a stale write.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetByUser(userID string, page Pagination) ([]models.Order, error)
	// GetByProductOwner returns orders containing at least one line item whose
	// product belongs to the given artisan.
	GetByProductOwner(artisanID string, page Pagination) ([]models.Order, error)
	Update(order *models.Order) error
}
