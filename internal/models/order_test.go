package models_test

import (
	"errors"
	"testing"

	"kriya/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTransitionOrderStatus_LegalEdges(t *testing.T) {
	cases := []struct {
		from models.OrderStatus
		to   models.OrderStatus
	}{
		{models.OrderStatusPending, models.OrderStatusProcessing},
		{models.OrderStatusPending, models.OrderStatusCancelled},
		{models.OrderStatusProcessing, models.OrderStatusShipped},
		{models.OrderStatusProcessing, models.OrderStatusCancelled},
		{models.OrderStatusShipped, models.OrderStatusDelivered},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			order := &models.Order{OrderStatus: tc.from}
			err := order.TransitionOrderStatus(tc.to)
			assert.NoError(t, err)
			assert.Equal(t, tc.to, order.OrderStatus)
		})
	}
}

func TestTransitionOrderStatus_IllegalEdgesLeaveStateUnchanged(t *testing.T) {
	cases := []struct {
		from models.OrderStatus
		to   models.OrderStatus
	}{
		{models.OrderStatusPending, models.OrderStatusShipped},
		{models.OrderStatusPending, models.OrderStatusDelivered},
		{models.OrderStatusProcessing, models.OrderStatusDelivered},
		{models.OrderStatusProcessing, models.OrderStatusPending},
		{models.OrderStatusShipped, models.OrderStatusCancelled},
		{models.OrderStatusShipped, models.OrderStatusProcessing},
		{models.OrderStatusDelivered, models.OrderStatusShipped},
		{models.OrderStatusDelivered, models.OrderStatusCancelled},
		{models.OrderStatusCancelled, models.OrderStatusPending},
		{models.OrderStatusCancelled, models.OrderStatusProcessing},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			order := &models.Order{OrderStatus: tc.from}
			err := order.TransitionOrderStatus(tc.to)
			assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
			assert.Equal(t, tc.from, order.OrderStatus, "failed transition must not change state")

			var transitionErr *models.InvalidStatusTransitionError
			assert.True(t, errors.As(err, &transitionErr))
			assert.Equal(t, string(tc.from), transitionErr.From)
			assert.Equal(t, string(tc.to), transitionErr.To)
		})
	}
}

func TestTransitionPaymentStatus(t *testing.T) {
	t.Run("pending to paid", func(t *testing.T) {
		order := &models.Order{PaymentStatus: models.PaymentStatusPending}
		assert.NoError(t, order.TransitionPaymentStatus(models.PaymentStatusPaid))
		assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	})

	t.Run("pending to failed and back for retry", func(t *testing.T) {
		order := &models.Order{PaymentStatus: models.PaymentStatusPending}
		assert.NoError(t, order.TransitionPaymentStatus(models.PaymentStatusFailed))
		assert.NoError(t, order.TransitionPaymentStatus(models.PaymentStatusPending))
		assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	})

	t.Run("paid to refunded is terminal", func(t *testing.T) {
		order := &models.Order{PaymentStatus: models.PaymentStatusPaid}
		assert.NoError(t, order.TransitionPaymentStatus(models.PaymentStatusRefunded))

		err := order.TransitionPaymentStatus(models.PaymentStatusPending)
		assert.ErrorIs(t, err, models.ErrInvalidPaymentTransition)
		assert.Equal(t, models.PaymentStatusRefunded, order.PaymentStatus)
	})

	t.Run("paid cannot fail", func(t *testing.T) {
		order := &models.Order{PaymentStatus: models.PaymentStatusPaid}
		err := order.TransitionPaymentStatus(models.PaymentStatusFailed)
		assert.ErrorIs(t, err, models.ErrInvalidPaymentTransition)
	})

	t.Run("failed cannot jump straight to paid", func(t *testing.T) {
		order := &models.Order{PaymentStatus: models.PaymentStatusFailed}
		err := order.TransitionPaymentStatus(models.PaymentStatusPaid)
		assert.ErrorIs(t, err, models.ErrInvalidPaymentTransition)
	})
}

func TestMergePaymentDetails(t *testing.T) {
	order := &models.Order{}

	order.MergePaymentDetails(map[string]any{"transaction_id": "tx-1", "paid_at": "now"})
	order.MergePaymentDetails(map[string]any{"failure_reason": "card declined"})

	assert.Equal(t, "tx-1", order.PaymentDetails["transaction_id"], "earlier entries survive later merges")
	assert.Equal(t, "card declined", order.PaymentDetails["failure_reason"])
	assert.Len(t, order.PaymentDetails, 3)
}

func TestContainsArtisan(t *testing.T) {
	order := &models.Order{Items: []models.OrderItem{
		{ProductID: "p1", ArtisanID: "artisan-1"},
		{ProductID: "p2", ArtisanID: "artisan-2"},
	}}

	assert.True(t, order.ContainsArtisan("artisan-1"))
	assert.True(t, order.ContainsArtisan("artisan-2"))
	assert.False(t, order.ContainsArtisan("artisan-3"))
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, models.ValidPaymentMethod(models.PaymentMethodUPI))
	assert.True(t, models.ValidPaymentMethod(models.PaymentMethodCOD))
	assert.False(t, models.ValidPaymentMethod(models.PaymentMethod("cheque")))
}
