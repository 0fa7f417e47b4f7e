package service

import (
	"context"
	"time"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/events"
	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
)

// Store interfaces consumed by the services. The DynamoDB repositories
// implement them; tests substitute in-memory fakes.

type ProductStore interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	DecrementStock(ctx context.Context, productID string, qty int) (*domain.StockAdjustment, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	// ConditionalUpdateStatus transitions from -> to atomically and reports
	// whether this call performed the transition. When false, the returned
	// order is the current row.
	ConditionalUpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, paymentStatus string) (bool, *domain.Order, error)
	AttachPayment(ctx context.Context, orderID, transactionID string) error
}

type PaymentStore interface {
	// CreateIfAbsent returns false, nil when a payment for the transaction id
	// already exists.
	CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
}

type ConfigStore interface {
	GetOrCreate(ctx context.Context, tenantID string) (*domain.Configuration, error)
	UpdateTaxRate(ctx context.Context, tenantID string, rate float64) (*domain.Configuration, error)
	AssignTerminal(ctx context.Context, tenantID, terminalID, stallID string) (*domain.Configuration, error)
	UpsertTerminal(ctx context.Context, tenantID string, terminal domain.Terminal) (*domain.Configuration, error)
	RemoveTerminal(ctx context.Context, tenantID, terminalID string) (*domain.Configuration, error)
}

// ProviderAPI is the payment provider surface the orchestrator touches.
type ProviderAPI interface {
	CreateIntent(ctx context.Context, params provider.CreateIntentParams) (*provider.Intent, error)
	GetIntent(ctx context.Context, id string) (*provider.Intent, error)
	CaptureIntent(ctx context.Context, id string) (*provider.Intent, error)
	CancelIntent(ctx context.Context, id string) (*provider.Intent, error)
	DispatchToReader(ctx context.Context, readerID, intentID string) (*provider.Reader, error)
	GetReader(ctx context.Context, id string) (*provider.Reader, error)
	CreateCheckoutSession(ctx context.Context, params provider.CreateCheckoutParams) (*provider.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*provider.CheckoutSession, error)
}

// EventPublisher pushes finalized-order events downstream. Publishing is
// best-effort; failures are logged, never propagated.
type EventPublisher interface {
	PublishOrderFinalized(event events.OrderFinalizedEvent) error
}

// StateTracker remembers when a transaction was first observed in a given
// provider status, so stateless poll requests can compute elapsed time.
type StateTracker interface {
	FirstSeen(ctx context.Context, transactionID, status string, now time.Time) (time.Duration, error)
}
