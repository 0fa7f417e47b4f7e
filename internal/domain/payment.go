package domain

import "time"

// Payment is the record of a provider transaction that reached a success
// state. Failed and canceled attempts are recorded on the order instead.
// TransactionID is the table key, so a duplicate webhook delivery cannot
// create a second row for the same transaction.
type Payment struct {
	TransactionID string            `json:"transaction_id" dynamodbav:"transaction_id"`
	ChargeID      string            `json:"charge_id,omitempty" dynamodbav:"charge_id,omitempty"`
	OrderID       string            `json:"order_id" dynamodbav:"order_id"`
	Amount        int64             `json:"amount" dynamodbav:"amount"` // minor currency units
	Currency      string            `json:"currency" dynamodbav:"currency"`
	Status        string            `json:"status" dynamodbav:"status"`
	Method        string            `json:"method,omitempty" dynamodbav:"method,omitempty"`
	ReceiptURL    string            `json:"receipt_url,omitempty" dynamodbav:"receipt_url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at" dynamodbav:"created_at"`
}
