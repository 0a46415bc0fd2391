package models

import "time"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod identifies how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodCOD        PaymentMethod = "cod"
	PaymentMethodStripe     PaymentMethod = "stripe"
	PaymentMethodPaypal     PaymentMethod = "paypal"
	PaymentMethodRazorpay   PaymentMethod = "razorpay"
)

// ValidPaymentMethod reports whether m is one of the supported payment methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetbanking,
		PaymentMethodCOD, PaymentMethodStripe, PaymentMethodPaypal, PaymentMethodRazorpay:
		return true
	}
	return false
}

// orderStatusTransitions is the legal edge set for fulfillment transitions.
// delivered and cancelled are terminal.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// paymentStatusTransitions is the legal edge set for payment transitions.
// failed may return to pending for a retry; refunded is terminal.
var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusFailed:   {PaymentStatusPending},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusRefunded: {},
}

// OrderItem is a single line item within an order. Price and ArtisanID are
// captured from the catalog when the order is placed and never re-read, so
// later catalog changes cannot affect historical orders.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string  `json:"-" gorm:"index;type:varchar(36)"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)" validate:"required"`
	ArtisanID string  `json:"artisan_id" gorm:"index;type:varchar(36)"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	Price     float64 `json:"price"` // unit price at the time of order
}

// ShippingAddress is the structured delivery address embedded in an order.
// Required at creation and immutable afterwards.
type ShippingAddress struct {
	Name    string `json:"name" validate:"required"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Notes   string `json:"notes,omitempty"`
}

// Order is the aggregate root for a customer order: line items, amounts,
// shipping address, fulfillment and payment state, and processor metadata.
type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string          `json:"user_id" gorm:"index;type:varchar(36)"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount    float64         `json:"total_amount"`
	ShippingCost   float64         `json:"shipping_cost"`
	TaxAmount      float64         `json:"tax_amount"`
	FinalAmount    float64         `json:"final_amount"`
	ShippingAddr   ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:ship_"`
	OrderStatus    OrderStatus     `json:"order_status" gorm:"type:varchar(20);default:pending"`
	PaymentStatus  PaymentStatus   `json:"payment_status" gorm:"type:varchar(20);default:pending"`
	PaymentMethod  PaymentMethod   `json:"payment_method" gorm:"type:varchar(20)"`
	PaymentDetails map[string]any  `json:"payment_details,omitempty" gorm:"serializer:json"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	OrderNotes     string          `json:"notes,omitempty"`
	Version        int64           `json:"-"` // optimistic concurrency token, bumped on every update
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TransitionOrderStatus moves the order to next if the edge is legal,
// otherwise returns InvalidStatusTransitionError and leaves the order unchanged.
func (o *Order) TransitionOrderStatus(next OrderStatus) error {
	for _, allowed := range orderStatusTransitions[o.OrderStatus] {
		if allowed == next {
			o.OrderStatus = next
			return nil
		}
	}
	return &InvalidStatusTransitionError{From: string(o.OrderStatus), To: string(next)}
}

// TransitionPaymentStatus moves the payment to next if the edge is legal,
// otherwise returns InvalidPaymentTransitionError and leaves the order unchanged.
func (o *Order) TransitionPaymentStatus(next PaymentStatus) error {
	for _, allowed := range paymentStatusTransitions[o.PaymentStatus] {
		if allowed == next {
			o.PaymentStatus = next
			return nil
		}
	}
	return &InvalidPaymentTransitionError{From: string(o.PaymentStatus), To: string(next)}
}

// CanTransitionOrderStatus reports whether the fulfillment edge is legal
// without applying it.
func (o *Order) CanTransitionOrderStatus(next OrderStatus) bool {
	for _, allowed := range orderStatusTransitions[o.OrderStatus] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MergePaymentDetails merges entries into the processor metadata bag.
// Existing keys are overwritten individually; the bag itself is never replaced
// wholesale, so earlier processor history survives later reconciliations.
func (o *Order) MergePaymentDetails(details map[string]any) {
	if len(details) == 0 {
		return
	}
	if o.PaymentDetails == nil {
		o.PaymentDetails = make(map[string]any, len(details))
	}
	for k, v := range details {
		o.PaymentDetails[k] = v
	}
}

// ContainsArtisan reports whether any line item in the order belongs to the
// given artisan. An artisan may only act on orders they fulfill.
func (o *Order) ContainsArtisan(artisanID string) bool {
	for _, item := range o.Items {
		if item.ArtisanID == artisanID {
			return true
		}
	}
	return false
}
