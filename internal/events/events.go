package events

import (
	"time"
)

// OrderFinalizedEvent is published after an order leaves Pending, for
// downstream reporting and reconciliation consumers.
type OrderFinalizedEvent struct {
	EventID       string    `json:"event_id"`
	OrderID       string    `json:"order_id"`
	TenantID      string    `json:"tenant_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}
