package repositories

import (
	"kriya/internal/models"
)

// ProductRepository defines the interface for product catalog access.
// DecrementStock must check and apply in a single atomic step so concurrent
// checkouts cannot oversell; IncrementStock is its compensating inverse, used
// to restock when a reconciliation loses an update race after decrementing.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetApproved() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	DecrementStock(id string, qty int) error
	IncrementStock(id string, qty int) error
}
