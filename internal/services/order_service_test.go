package services_test

import (
	"testing"

	"kriya/internal/models"
	"kriya/internal/repositories"
	"kriya/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepo is a testify mock of repositories.OrderRepository.
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepo) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByUser(userID string, page repositories.Pagination) ([]models.Order, error) {
	args := m.Called(userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByProductOwner(artisanID string, page repositories.Pagination) ([]models.Order, error) {
	args := m.Called(artisanID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepo) Update(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

var testAddress = models.ShippingAddress{
	Name:    "Asha Rao",
	Street:  "12 Weaver Lane",
	City:    "Jaipur",
	State:   "Rajasthan",
	Country: "India",
	Zip:     "302001",
	Phone:   "+91-9999999999",
}

func approvedProduct(id, owner string, price float64, stock int) *models.Product {
	return &models.Product{ID: id, Name: "Handwoven scarf", Price: price, Stock: stock, OwnerID: owner, IsApproved: true}
}

func newOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository) *services.OrderService {
	return services.NewOrderService(orderRepo, productRepo, nil, services.OrderConfig{TaxRate: 0.18, ShippingFlat: 0})
}

func TestOrderService_PlaceOrder(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepository)
	service := newOrderService(orderRepo, productRepo)

	productRepo.On("GetByID", "p1").Return(approvedProduct("p1", "artisan-1", 10.0, 5), nil).Once()
	productRepo.On("GetByID", "p2").Return(approvedProduct("p2", "artisan-2", 5.0, 5), nil).Once()
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()

	order, err := service.PlaceOrder("user-1", services.PlaceOrderRequest{
		Items: []services.OrderItemRequest{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 1},
		},
		ShippingAddress: testAddress,
		PaymentMethod:   models.PaymentMethodStripe,
	})

	assert.NoError(t, err)
	assert.Equal(t, "user-1", order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, 25.0, order.TotalAmount)
	assert.InDelta(t, 4.5, order.TaxAmount, 1e-9)
	assert.InDelta(t, 29.5, order.FinalAmount, 1e-9)

	// Prices and artisan ownership are frozen from the catalog, never from the request.
	assert.Equal(t, 10.0, order.Items[0].Price)
	assert.Equal(t, "artisan-1", order.Items[0].ArtisanID)

	orderRepo.AssertExpectations(t)
	productRepo.AssertExpectations(t)
}

func TestOrderService_PlaceOrder_AggregatesAllItemFailures(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	productRepo := new(MockProductRepository)
	service := newOrderService(orderRepo, productRepo)

	missing := &models.ProductNotFoundError{ProductID: "gone"}
	productRepo.On("GetByID", "gone").Return(nil, missing).Once()
	productRepo.On("GetByID", "draft").Return(&models.Product{ID: "draft", Price: 10, Stock: 5, IsApproved: false}, nil).Once()
	productRepo.On("GetByID", "low").Return(approvedProduct("low", "artisan-1", 10, 1), nil).Once()

	_, err := service.PlaceOrder("user-1", services.PlaceOrderRequest{
		Items: []services.OrderItemRequest{
			{ProductID: "gone", Quantity: 1},
			{ProductID: "draft", Quantity: 1},
			{ProductID: "low", Quantity: 3},
		},
		ShippingAddress: testAddress,
		PaymentMethod:   models.PaymentMethodCard,
	})

	assert.Error(t, err)
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Issues, 3, "every invalid item is reported, not just the first")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.ErrorIs(t, err, models.ErrProductNotApproved)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_PlaceOrder_RejectsUnknownPaymentMethod(t *testing.T) {
	service := newOrderService(new(MockOrderRepo), new(MockProductRepository))

	_, err := service.PlaceOrder("user-1", services.PlaceOrderRequest{
		Items:           []services.OrderItemRequest{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: testAddress,
		PaymentMethod:   "cheque",
	})

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestOrderService_UpdateFulfillmentStatus(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	order := &models.Order{
		ID:          "order-1",
		UserID:      "user-1",
		OrderStatus: models.OrderStatusProcessing,
		Items:       []models.OrderItem{{ProductID: "p1", ArtisanID: "artisan-1", Quantity: 1, Price: 10}},
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	orderRepo.On("Update", mock.AnythingOfType("*models.Order")).Return(nil).Once()

	updated, err := service.UpdateFulfillmentStatus("order-1", "artisan-1", models.OrderStatusShipped, "TRK-42", "left warehouse")

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.OrderStatus)
	assert.Equal(t, "TRK-42", updated.TrackingNumber)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_UpdateFulfillmentStatus_ForbiddenForStranger(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	order := &models.Order{
		ID:          "order-1",
		OrderStatus: models.OrderStatusProcessing,
		Items:       []models.OrderItem{{ProductID: "p1", ArtisanID: "artisan-1"}},
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()

	_, err := service.UpdateFulfillmentStatus("order-1", "artisan-9", models.OrderStatusShipped, "", "")

	assert.ErrorIs(t, err, models.ErrForbidden)
	orderRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestOrderService_UpdateFulfillmentStatus_IllegalEdge(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	// pending -> shipped skips processing and is not in the table.
	order := &models.Order{
		ID:          "order-1",
		OrderStatus: models.OrderStatusPending,
		Items:       []models.OrderItem{{ProductID: "p1", ArtisanID: "artisan-1"}},
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()

	_, err := service.UpdateFulfillmentStatus("order-1", "artisan-1", models.OrderStatusShipped, "", "")

	assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	orderRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestOrderService_CancelOrder(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	order := &models.Order{ID: "order-1", UserID: "user-1", OrderStatus: models.OrderStatusPending}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	orderRepo.On("Update", mock.AnythingOfType("*models.Order")).Return(nil).Once()

	cancelled, err := service.CancelOrder("order-1", "user-1")

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_CancelOrder_OnlyOwner(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	order := &models.Order{ID: "order-1", UserID: "user-1", OrderStatus: models.OrderStatusPending}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()

	_, err := service.CancelOrder("order-1", "someone-else")

	assert.ErrorIs(t, err, models.ErrForbidden)
	orderRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestOrderService_CancelOrder_OnlyWhilePending(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	} {
		order := &models.Order{ID: "order-1", UserID: "user-1", OrderStatus: status}
		orderRepo.On("GetByID", "order-1").Return(order, nil).Once()

		_, err := service.CancelOrder("order-1", "user-1")

		assert.ErrorIs(t, err, models.ErrInvalidStatusTransition, "status %s", status)
		assert.Equal(t, status, order.OrderStatus, "failed cancel must not change state")
	}
	orderRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestOrderService_GetOrderByID_AccessControl(t *testing.T) {
	orderRepo := new(MockOrderRepo)
	service := newOrderService(orderRepo, new(MockProductRepository))

	order := &models.Order{
		ID:     "order-1",
		UserID: "user-1",
		Items:  []models.OrderItem{{ProductID: "p1", ArtisanID: "artisan-1"}},
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil)

	_, err := service.GetOrderByID("order-1", "user-1", models.RoleCustomer)
	assert.NoError(t, err, "owner can read")

	_, err = service.GetOrderByID("order-1", "artisan-1", models.RoleArtisan)
	assert.NoError(t, err, "fulfilling artisan can read")

	_, err = service.GetOrderByID("order-1", "admin-1", models.RoleAdmin)
	assert.NoError(t, err, "admin can read")

	_, err = service.GetOrderByID("order-1", "user-2", models.RoleCustomer)
	assert.ErrorIs(t, err, models.ErrForbidden, "strangers are rejected without detail")
}
