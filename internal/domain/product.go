package domain

import "time"

type Product struct {
	ProductID   string    `json:"product_id" dynamodbav:"product_id"`
	TenantID    string    `json:"tenant_id" dynamodbav:"tenant_id"`
	StallID     string    `json:"stall_id,omitempty" dynamodbav:"stall_id,omitempty"`
	Name        string    `json:"name" dynamodbav:"name"`
	Price       int64     `json:"price" dynamodbav:"price"` // minor currency units
	Category    string    `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Description string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Available   bool      `json:"available" dynamodbav:"available"`
	Quantity    int       `json:"quantity" dynamodbav:"quantity"` // remaining stock
	Sold        int       `json:"sold" dynamodbav:"sold"`
	Unlimited   bool      `json:"unlimited" dynamodbav:"unlimited"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// AvailableStock returns the sellable quantity. Callers must check Unlimited
// first; for unlimited products the quantity fields are not maintained.
func (p *Product) AvailableStock() int {
	if p.Quantity < 0 {
		return 0
	}
	return p.Quantity
}

// StockAdjustment is the result of a single product decrement.
type StockAdjustment struct {
	ProductID string `json:"product_id"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Clamped   bool   `json:"clamped"`
}
