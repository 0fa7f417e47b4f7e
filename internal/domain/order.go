package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusFailed    OrderStatus = "Failed"
)

// Payment status values mirrored from the provider onto the order. Kept
// separate from the order lifecycle status.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
	PaymentStatusFailed = "failed"
)

// Payment method tags recorded on an order.
const (
	MethodCash        = "cash"
	MethodCardPresent = "card_present"
	MethodCheckout    = "checkout"
)

type CustomerInfo struct {
	Name  string `json:"name" dynamodbav:"name"`
	Phone string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
}

// OrderItem is a snapshot of the product at order time. Later catalog edits
// must not change a placed order's bill, so name and price are copied here.
type OrderItem struct {
	ProductID string `json:"product_id" dynamodbav:"product_id"`
	Name      string `json:"name" dynamodbav:"name"`
	Price     int64  `json:"price" dynamodbav:"price"` // minor currency units
	Quantity  int    `json:"quantity" dynamodbav:"quantity"`
}

type BillBreakdown struct {
	Subtotal     int64 `json:"subtotal" dynamodbav:"subtotal"`
	Tax          int64 `json:"tax" dynamodbav:"tax"`
	TotalWithTax int64 `json:"total_with_tax" dynamodbav:"total_with_tax"`
}

type Order struct {
	OrderID           string        `json:"order_id" dynamodbav:"order_id"`
	TenantID          string        `json:"tenant_id" dynamodbav:"tenant_id"`
	StallID           string        `json:"stall_id,omitempty" dynamodbav:"stall_id,omitempty"`
	Status            OrderStatus   `json:"status" dynamodbav:"status"`
	PaymentStatus     string        `json:"payment_status" dynamodbav:"payment_status"`
	Customer          CustomerInfo  `json:"customer" dynamodbav:"customer"`
	Items             []OrderItem   `json:"items" dynamodbav:"items"`
	Bill              BillBreakdown `json:"bill" dynamodbav:"bill"`
	PaymentMethod     string        `json:"payment_method" dynamodbav:"payment_method"`
	TransactionID     string        `json:"transaction_id,omitempty" dynamodbav:"transaction_id,omitempty"`
	CheckoutSessionID string        `json:"checkout_session_id,omitempty" dynamodbav:"checkout_session_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" dynamodbav:"updated_at"`
}

// Terminal reports whether the order has reached a final lifecycle status.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusFailed
}
