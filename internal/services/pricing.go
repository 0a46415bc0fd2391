package services

import "kriya/internal/models"

// DefaultTaxRate applies when the caller does not configure one.
const DefaultTaxRate = 0.18

// OrderTotals is the computed money breakdown for an order.
// FinalAmount == TotalAmount + ShippingCost + TaxAmount always holds.
type OrderTotals struct {
	TotalAmount  float64
	ShippingCost float64
	TaxAmount    float64
	FinalAmount  float64
}

// ComputeOrderTotals derives the order's amounts from its line items. Pure:
// it never mutates items and has no side effects. A taxRate <= 0 falls back to
// DefaultTaxRate; an empty item list yields a zero subtotal, so the final
// amount is just the shipping cost.
func ComputeOrderTotals(items []models.OrderItem, shippingCost, taxRate float64) OrderTotals {
	if taxRate <= 0 {
		taxRate = DefaultTaxRate
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}

	taxAmount := subtotal * taxRate
	return OrderTotals{
		TotalAmount:  subtotal,
		ShippingCost: shippingCost,
		TaxAmount:    taxAmount,
		FinalAmount:  subtotal + shippingCost + taxAmount,
	}
}
