package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrPaymentExists      = errors.New("payment already recorded for transaction")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrConfigNotFound     = errors.New("configuration not found")
	ErrConfigConflict     = errors.New("configuration was modified concurrently, retry")
	ErrNoStallAssigned    = errors.New("no stall assigned to this account")
	ErrNoTerminalAssigned = errors.New("no terminal assigned to this stall")
	ErrTerminalNotFound   = errors.New("terminal not found with payment provider")
	ErrTerminalTaken      = errors.New("terminal already assigned to another stall")
	ErrStallTaken         = errors.New("stall already has a terminal assigned")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrCheckoutMismatch   = errors.New("checkout session does not match order")
)

// ValidationError marks malformed or missing input. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InventoryShortage describes one order item that cannot be fulfilled.
type InventoryShortage struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// InsufficientInventoryError enumerates every offending item so the cashier
// can see exactly what to remove from the order.
type InsufficientInventoryError struct {
	Shortages []InventoryShortage
}

func (e *InsufficientInventoryError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s requested %d available %d", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient inventory: " + strings.Join(parts, "; ")
}

// ProviderError carries the payment provider's rejection back to the caller.
type ProviderError struct {
	Op      string
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed (%d): %s", e.Op, e.Status, e.Message)
}
