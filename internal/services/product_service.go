package services

import (
	"kriya/internal/models"
	"kriya/internal/repositories"
)

// ProductService handles business logic related to the product catalog:
// artisan listings and the admin approval workflow.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves every product, approved or not. Admin view.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetApprovedProducts retrieves the customer-facing catalog.
func (s *ProductService) GetApprovedProducts() ([]models.Product, error) {
	return s.repo.GetApproved()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct lists a new product for the given artisan. Listings start
// unapproved and stay invisible to customers until an admin clears them.
func (s *ProductService) CreateProduct(product *models.Product, ownerID string) error {
	product.OwnerID = ownerID
	product.IsApproved = false
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product. Only the owning artisan may edit
// their listing.
func (s *ProductService) UpdateProduct(product *models.Product, actorID string) error {
	existing, err := s.repo.GetByID(product.ID)
	if err != nil {
		return err
	}
	if existing.OwnerID != actorID {
		return models.ErrForbidden
	}
	product.OwnerID = existing.OwnerID
	product.IsApproved = existing.IsApproved
	return s.repo.Update(product)
}

// ApproveProduct marks a listing as cleared for sale. Admin only; the caller
// enforces the role.
func (s *ProductService) ApproveProduct(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	product.IsApproved = true
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a listing. Allowed for the owning artisan or an admin.
func (s *ProductService) DeleteProduct(id, actorID, role string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin && existing.OwnerID != actorID {
		return models.ErrForbidden
	}
	return s.repo.Delete(id)
}
