package repositories_test

import (
	"sync"
	"testing"

	"kriya/internal/models"
	"kriya/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func TestMockProductRepository_DecrementStock(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	assert.NoError(t, repo.Create(&models.Product{ID: "p1", Name: "Handwoven scarf", Price: 10, Stock: 3}))

	assert.NoError(t, repo.DecrementStock("p1", 2))

	err := repo.DecrementStock("p1", 2)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	product, _ := repo.GetByID("p1")
	assert.Equal(t, 1, product.Stock, "failed decrement must not change stock")

	assert.NoError(t, repo.IncrementStock("p1", 2))
	product, _ = repo.GetByID("p1")
	assert.Equal(t, 3, product.Stock)
}

func TestMockProductRepository_ConcurrentDecrementNeverOversells(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	assert.NoError(t, repo.Create(&models.Product{ID: "p1", Name: "Handwoven scarf", Price: 10, Stock: 1}))

	const buyers = 16
	var wg sync.WaitGroup
	results := make(chan error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.DecrementStock("p1", 1)
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, models.ErrInsufficientStock)
			losses++
		}
	}

	assert.Equal(t, 1, wins, "exactly one buyer gets the last unit")
	assert.Equal(t, buyers-1, losses)

	product, _ := repo.GetByID("p1")
	assert.Equal(t, 0, product.Stock)
}

func TestMockOrderRepository_UpdateVersionCheck(t *testing.T) {
	repo := repositories.NewMockOrderRepository()

	order := &models.Order{UserID: "user-1", OrderStatus: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
	assert.NoError(t, repo.Create(order))

	// Two readers load the same version.
	first, err := repo.GetByID(order.ID)
	assert.NoError(t, err)
	second, err := repo.GetByID(order.ID)
	assert.NoError(t, err)

	first.OrderStatus = models.OrderStatusProcessing
	assert.NoError(t, repo.Update(first))

	// The second writer is stale and must not win.
	second.OrderStatus = models.OrderStatusCancelled
	err = repo.Update(second)
	assert.ErrorIs(t, err, models.ErrVersionConflict)

	stored, _ := repo.GetByID(order.ID)
	assert.Equal(t, models.OrderStatusProcessing, stored.OrderStatus)
}

func TestMockOrderRepository_Queries(t *testing.T) {
	repo := repositories.NewMockOrderRepository()

	for _, order := range []*models.Order{
		{UserID: "user-1", Items: []models.OrderItem{{ProductID: "p1", ArtisanID: "artisan-1", Quantity: 1, Price: 10}}},
		{UserID: "user-1", Items: []models.OrderItem{{ProductID: "p2", ArtisanID: "artisan-2", Quantity: 1, Price: 5}}},
		{UserID: "user-2", Items: []models.OrderItem{{ProductID: "p1", ArtisanID: "artisan-1", Quantity: 2, Price: 10}}},
	} {
		assert.NoError(t, repo.Create(order))
	}

	page := repositories.Pagination{Page: 1, PageSize: 10}

	mine, err := repo.GetByUser("user-1", page)
	assert.NoError(t, err)
	assert.Len(t, mine, 2)

	fulfilling, err := repo.GetByProductOwner("artisan-1", page)
	assert.NoError(t, err)
	assert.Len(t, fulfilling, 2)

	fulfilling, err = repo.GetByProductOwner("artisan-2", page)
	assert.NoError(t, err)
	assert.Len(t, fulfilling, 1)

	none, err := repo.GetByUser("nobody", page)
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 20, repositories.Pagination{}.Limit(), "default page size")
	assert.Equal(t, 0, repositories.Pagination{}.Offset())
	assert.Equal(t, 10, repositories.Pagination{Page: 2, PageSize: 10}.Offset())
	assert.Equal(t, 20, repositories.Pagination{PageSize: 1000}.Limit(), "oversized page size clamped")
}
