package models

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the business-rule taxonomy. Handlers match these with
// errors.Is to pick HTTP status codes; the structured error types below all
// unwrap to one of them.
var (
	ErrProductNotFound           = errors.New("product not found")
	ErrProductNotApproved        = errors.New("product not approved for sale")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrForbidden                 = errors.New("forbidden")
	ErrInvalidStatusTransition   = errors.New("invalid order status transition")
	ErrInvalidPaymentTransition  = errors.New("invalid payment status transition")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrOrderNotFound             = errors.New("order not found")
	ErrVersionConflict           = errors.New("order was modified concurrently")
)

// ProductNotFoundError identifies which requested product is missing.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// ProductNotApprovedError identifies a product that is not cleared for sale.
type ProductNotApprovedError struct {
	ProductID string
}

func (e *ProductNotApprovedError) Error() string {
	return fmt.Sprintf("product with ID %s is not approved for sale", e.ProductID)
}

func (e *ProductNotApprovedError) Unwrap() error { return ErrProductNotApproved }

// InsufficientStockError carries the requested vs available quantities.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvalidStatusTransitionError names the illegal fulfillment edge.
type InvalidStatusTransitionError struct {
	From, To string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order status from %s to %s", e.From, e.To)
}

func (e *InvalidStatusTransitionError) Unwrap() error { return ErrInvalidStatusTransition }

// InvalidPaymentTransitionError names the illegal payment edge.
type InvalidPaymentTransitionError struct {
	From, To string
}

func (e *InvalidPaymentTransitionError) Error() string {
	return fmt.Sprintf("cannot transition payment status from %s to %s", e.From, e.To)
}

func (e *InvalidPaymentTransitionError) Unwrap() error { return ErrInvalidPaymentTransition }

// ValidationError aggregates per-item rejections from order validation.
// Any invalid item fails the whole batch; Issues holds every rejection so the
// caller can fix them all in one pass.
type ValidationError struct {
	Issues []error
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, target) match any of the aggregated issues, so a
// batch containing a stock rejection still matches ErrInsufficientStock.
func (e *ValidationError) Is(target error) bool {
	for _, issue := range e.Issues {
		if errors.Is(issue, target) {
			return true
		}
	}
	return false
}
