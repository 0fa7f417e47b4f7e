package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/events"
	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
)

// OrchestratorConfig carries the process-wide payment settings.
type OrchestratorConfig struct {
	Currency           string
	CaptureMethod      string // automatic | manual
	WebhookSecret      string
	StuckThreshold     time.Duration
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

// Orchestrator drives an order's payment from intent creation to a terminal
// state. Webhook delivery, client polling, and manual cleanup all converge on
// Finalize, which transitions the order out of Pending exactly once.
type Orchestrator struct {
	orders    OrderStore
	payments  PaymentStore
	products  ProductStore
	configs   ConfigStore
	provider  ProviderAPI
	inventory *Inventory
	publisher EventPublisher // nil disables event publishing
	tracker   StateTracker
	cfg       OrchestratorConfig
	logger    *zap.Logger

	eventHandlers map[provider.EventKind]func(ctx context.Context, evt *provider.Event)
}

func NewOrchestrator(
	orders OrderStore,
	payments PaymentStore,
	products ProductStore,
	configs ConfigStore,
	providerAPI ProviderAPI,
	inventory *Inventory,
	publisher EventPublisher,
	tracker StateTracker,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	o := &Orchestrator{
		orders:    orders,
		payments:  payments,
		products:  products,
		configs:   configs,
		provider:  providerAPI,
		inventory: inventory,
		publisher: publisher,
		tracker:   tracker,
		cfg:       cfg,
		logger:    logger,
	}

	// Closed mapping from event kind to handler; anything else is observed
	// and logged only.
	o.eventHandlers = map[provider.EventKind]func(ctx context.Context, evt *provider.Event){
		provider.EventTerminalActionSucceeded: o.onSuccessSignal,
		provider.EventPaymentSucceeded:        o.onSuccessSignal,
		provider.EventChargeSucceeded:         o.onSuccessSignal,
		provider.EventPaymentFailed:           o.onFailureObserved,
		provider.EventPaymentCanceled:         o.onFailureObserved,
	}
	return o
}

type CreateIntentRequest struct {
	Amount   int64                `json:"amount"`
	Customer domain.CustomerInfo  `json:"customer"`
	Items    []domain.OrderItem   `json:"items"`
	Bill     domain.BillBreakdown `json:"bill"`
	StallID  string               `json:"stall_id"`
}

type IntentResult struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	// Warning is set when the transaction was created but terminal dispatch
	// failed; the caller can retry dispatch or fall back to polling.
	Warning string `json:"warning,omitempty"`
}

// CreatePaymentIntent validates inventory, provisions a Pending order, and
// asks the provider for a transaction pushed to the tenant's stall terminal.
func (o *Orchestrator) CreatePaymentIntent(ctx context.Context, tenantID string, req CreateIntentRequest) (*IntentResult, error) {
	if err := validateOrderInput(req.Amount, req.Items); err != nil {
		return nil, err
	}
	if err := o.checkInventory(ctx, req.Items); err != nil {
		return nil, err
	}

	terminal, err := o.resolveTerminal(ctx, tenantID, req.StallID)
	if err != nil {
		return nil, err
	}

	// The external order id travels in the transaction metadata so webhooks
	// and polls resolve the order without a lookup table.
	orderID := uuid.New().String()

	intent, err := o.provider.CreateIntent(ctx, provider.CreateIntentParams{
		Amount:         req.Amount,
		Currency:       o.cfg.Currency,
		CaptureMethod:  o.cfg.CaptureMethod,
		PaymentMethods: []string{provider.MethodCardPresent, provider.MethodPushPayment},
		Metadata:       map[string]string{provider.MetadataOrderKey: orderID},
	})
	if err != nil {
		return nil, wrapProviderErr("create transaction", err)
	}

	order := &domain.Order{
		OrderID:       orderID,
		TenantID:      tenantID,
		StallID:       req.StallID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Customer:      req.Customer,
		Items:         req.Items,
		Bill:          req.Bill,
		PaymentMethod: domain.MethodCardPresent,
		TransactionID: intent.ID,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := o.orders.Create(ctx, order); err != nil {
		// The transaction exists but has no order to land on; cancel it so
		// the reader cannot collect a payment we will not fulfil.
		if _, cancelErr := o.provider.CancelIntent(ctx, intent.ID); cancelErr != nil {
			o.logger.Error("Failed to cancel orphaned transaction",
				zap.String("transaction_id", intent.ID),
				zap.Error(cancelErr))
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	result := &IntentResult{
		OrderID:       orderID,
		TransactionID: intent.ID,
	}

	if _, err := o.provider.DispatchToReader(ctx, terminal.TerminalID, intent.ID); err != nil {
		// The transaction still exists and can be retried or polled, so this
		// is a warning on a success response, not a failure.
		o.logger.Warn("Terminal dispatch failed after transaction creation",
			zap.String("order_id", orderID),
			zap.String("transaction_id", intent.ID),
			zap.String("terminal_id", terminal.TerminalID),
			zap.Error(err))
		result.Warning = fmt.Sprintf("transaction created but terminal dispatch failed: %v", err)
	}

	o.logger.Info("Payment intent created",
		zap.String("order_id", orderID),
		zap.String("transaction_id", intent.ID),
		zap.String("terminal_id", terminal.TerminalID),
		zap.Int64("amount", req.Amount))

	return result, nil
}

// HandleWebhook verifies, parses, and dispatches a provider event. Signature
// verification happens before anything else and is the only rejection; after
// it passes, processing failures are swallowed so the provider is always
// acknowledged and does not retry-storm.
func (o *Orchestrator) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := provider.VerifySignature(payload, signature, o.cfg.WebhookSecret); err != nil {
		return domain.ErrInvalidSignature
	}

	evt, err := provider.ParseEvent(payload)
	if err != nil {
		// Authenticated but unparseable; ack it anyway.
		o.logger.Error("Malformed webhook payload", zap.Error(err))
		return nil
	}

	if handler, ok := o.eventHandlers[evt.Kind()]; ok {
		handler(ctx, evt)
	} else {
		o.logger.Debug("Webhook event observed",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type))
	}
	return nil
}

// onSuccessSignal treats the event only as a trigger: the authoritative
// transaction state is re-fetched from the provider before finalizing.
func (o *Orchestrator) onSuccessSignal(ctx context.Context, evt *provider.Event) {
	transactionID := evt.IntentID()
	if transactionID == "" {
		o.logger.Warn("Success event without transaction reference",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type))
		return
	}

	intent, err := o.provider.GetIntent(ctx, transactionID)
	if err != nil {
		o.logger.Error("Failed to re-fetch transaction for webhook",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return
	}
	if intent.Status != provider.IntentStatusSucceeded {
		o.logger.Info("Webhook success signal but transaction not succeeded",
			zap.String("transaction_id", transactionID),
			zap.String("status", intent.Status))
		return
	}

	orderID := intent.OrderID()
	if orderID == "" {
		o.logger.Error("Succeeded transaction missing order metadata",
			zap.String("transaction_id", transactionID))
		return
	}

	if _, _, err := o.Finalize(ctx, orderID, intent, true); err != nil {
		o.logger.Error("Webhook finalization failed",
			zap.String("order_id", orderID),
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	}
}

func (o *Orchestrator) onFailureObserved(ctx context.Context, evt *provider.Event) {
	o.logger.Info("Payment failure event observed",
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.Type),
		zap.String("transaction_id", evt.IntentID()))
}

// Finalize is the idempotent convergence point for webhook, poll, and manual
// cleanup. The conditional status transition decides a single winner; the
// loser receives the already-terminal order unchanged and performs no side
// effects. Returns the order and whether this call performed the transition.
func (o *Orchestrator) Finalize(ctx context.Context, orderID string, intent *provider.Intent, succeeded bool) (*domain.Order, bool, error) {
	to := domain.OrderStatusFailed
	paymentStatus := domain.PaymentStatusFailed
	if succeeded {
		to = domain.OrderStatusCompleted
		paymentStatus = domain.PaymentStatusPaid
	}

	won, order, err := o.orders.ConditionalUpdateStatus(ctx, orderID, domain.OrderStatusPending, to, paymentStatus)
	if err != nil {
		return nil, false, err
	}
	if !won {
		// Duplicate finalization: not an error, deliberately a no-op.
		o.logger.Debug("Order already finalized",
			zap.String("order_id", orderID),
			zap.String("status", string(order.Status)))
		return order, false, nil
	}

	if succeeded {
		o.recordPayment(ctx, order, intent)
		report := o.inventory.ApplyOrderDecrement(ctx, order.Items)
		if report.Failed > 0 {
			// The customer has paid; the order stands. Stock correction is an
			// operational concern, so log and continue.
			o.logger.Error("Inventory decrement incomplete after payment",
				zap.String("order_id", orderID),
				zap.Int("applied", report.Applied),
				zap.Int("failed", report.Failed))
		}
	}

	o.publishFinalized(order, intent)

	o.logger.Info("Order finalized",
		zap.String("order_id", orderID),
		zap.String("status", string(order.Status)))

	return order, true, nil
}

func (o *Orchestrator) recordPayment(ctx context.Context, order *domain.Order, intent *provider.Intent) {
	if intent == nil {
		return
	}

	method := intent.PaymentMethodType
	if method == "" {
		method = domain.MethodCardPresent
	}
	payment := &domain.Payment{
		TransactionID: intent.ID,
		ChargeID:      intent.ChargeID,
		OrderID:       order.OrderID,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		Status:        intent.Status,
		Method:        method,
		ReceiptURL:    intent.ReceiptURL,
		Metadata:      intent.Metadata,
		CreatedAt:     time.Now().UTC(),
	}

	created, err := o.payments.CreateIfAbsent(ctx, payment)
	if err != nil {
		o.logger.Error("Failed to record payment",
			zap.String("transaction_id", intent.ID),
			zap.Error(err))
		return
	}
	if !created {
		// Second line of defense: the unique transaction id already has a
		// row, so a double-booking attempt lands here harmlessly.
		o.logger.Warn("Payment record already existed",
			zap.String("transaction_id", intent.ID))
		return
	}

	if err := o.orders.AttachPayment(ctx, order.OrderID, intent.ID); err != nil {
		o.logger.Error("Failed to attach payment reference to order",
			zap.String("order_id", order.OrderID),
			zap.String("transaction_id", intent.ID),
			zap.Error(err))
	}
}

type ConfirmResult struct {
	TransactionID string        `json:"transaction_id"`
	Status        string        `json:"status"`
	Order         *domain.Order `json:"order,omitempty"`
}

// ConfirmPayment is the poll-driven confirmation path: the client saw the
// terminal accept the card and asks the server to settle the order.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, transactionID string) (*ConfirmResult, error) {
	intent, err := o.provider.GetIntent(ctx, transactionID)
	if err != nil {
		return nil, wrapProviderErr("retrieve transaction", err)
	}

	if intent.Status == provider.IntentStatusRequiresCapture {
		intent, err = o.provider.CaptureIntent(ctx, transactionID)
		if err != nil {
			return nil, wrapProviderErr("capture transaction", err)
		}
	}

	result := &ConfirmResult{TransactionID: transactionID, Status: intent.Status}

	switch intent.Status {
	case provider.IntentStatusSucceeded:
		order, _, err := o.finalizeFromIntent(ctx, intent, true)
		if err != nil {
			return nil, err
		}
		result.Order = order
	case provider.IntentStatusCanceled:
		order, _, err := o.finalizeFromIntent(ctx, intent, false)
		if err != nil {
			return nil, err
		}
		result.Order = order
	}
	return result, nil
}

// CapturePaymentIntent captures a manual-capture transaction and finalizes
// the order when capture settles it.
func (o *Orchestrator) CapturePaymentIntent(ctx context.Context, transactionID string) (*ConfirmResult, error) {
	intent, err := o.provider.CaptureIntent(ctx, transactionID)
	if err != nil {
		return nil, wrapProviderErr("capture transaction", err)
	}

	result := &ConfirmResult{TransactionID: transactionID, Status: intent.Status}
	if intent.Status == provider.IntentStatusSucceeded {
		order, _, err := o.finalizeFromIntent(ctx, intent, true)
		if err != nil {
			return nil, err
		}
		result.Order = order
	}
	return result, nil
}

type StatusSnapshot struct {
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"status"`
	PaymentMethodType string `json:"payment_method_type,omitempty"`
	// TerminalFailure tells the poller to stop: the transaction will not
	// succeed even though the provider has not emitted an explicit failure.
	TerminalFailure bool   `json:"terminal_failure"`
	FailureCode     string `json:"failure_code,omitempty"`
	FailureMessage  string `json:"failure_message,omitempty"`
}

// CheckStatus is the read-only poll endpoint: the provider's current state
// plus the derived stop-polling signal. The enrichment is best-effort and
// never fails the underlying read.
func (o *Orchestrator) CheckStatus(ctx context.Context, transactionID string) (*StatusSnapshot, error) {
	intent, err := o.provider.GetIntent(ctx, transactionID)
	if err != nil {
		return nil, wrapProviderErr("retrieve transaction", err)
	}

	snapshot := &StatusSnapshot{
		TransactionID:     transactionID,
		Status:            intent.Status,
		PaymentMethodType: intent.PaymentMethodType,
		FailureCode:       intent.LastErrorCode,
		FailureMessage:    intent.LastErrorMessage,
	}

	elapsed := o.elapsedInState(ctx, transactionID, intent.Status)
	if derivePollOutcome(intent.Status, intent.LastErrorCode, elapsed, o.cfg.StuckThreshold) == TerminalFailure {
		snapshot.TerminalFailure = true
		if snapshot.FailureMessage == "" {
			snapshot.FailureMessage = "payment will not complete; cancel and retry"
		}
	}

	return snapshot, nil
}

type CleanupResult struct {
	TransactionID string        `json:"transaction_id"`
	Action        string        `json:"action"` // none | completed | failed
	Order         *domain.Order `json:"order,omitempty"`
}

// CheckFailureAndCleanup is the manual path for a client that suspects a
// stuck payment. It converges on the same Finalize as webhook and poll: a
// transaction that actually succeeded completes the order, a dead one fails
// it, anything still in flight is left alone.
func (o *Orchestrator) CheckFailureAndCleanup(ctx context.Context, transactionID string) (*CleanupResult, error) {
	intent, err := o.provider.GetIntent(ctx, transactionID)
	if err != nil {
		return nil, wrapProviderErr("retrieve transaction", err)
	}

	result := &CleanupResult{TransactionID: transactionID, Action: "none"}

	if intent.Status == provider.IntentStatusSucceeded {
		order, _, err := o.finalizeFromIntent(ctx, intent, true)
		if err != nil {
			return nil, err
		}
		result.Action = "completed"
		result.Order = order
		return result, nil
	}

	elapsed := o.elapsedInState(ctx, transactionID, intent.Status)
	outcome := derivePollOutcome(intent.Status, intent.LastErrorCode, elapsed, o.cfg.StuckThreshold)
	if outcome != TerminalFailure {
		return result, nil
	}

	if intent.Status != provider.IntentStatusCanceled {
		if _, err := o.provider.CancelIntent(ctx, transactionID); err != nil {
			o.logger.Warn("Failed to cancel stuck transaction",
				zap.String("transaction_id", transactionID),
				zap.Error(err))
		}
	}

	order, _, err := o.finalizeFromIntent(ctx, intent, false)
	if err != nil {
		return nil, err
	}
	result.Action = "failed"
	result.Order = order
	return result, nil
}

func (o *Orchestrator) finalizeFromIntent(ctx context.Context, intent *provider.Intent, succeeded bool) (*domain.Order, bool, error) {
	orderID := intent.OrderID()
	if orderID == "" {
		return nil, false, domain.Validationf("transaction %s carries no order reference", intent.ID)
	}
	return o.Finalize(ctx, orderID, intent, succeeded)
}

func (o *Orchestrator) elapsedInState(ctx context.Context, transactionID, status string) time.Duration {
	if o.tracker == nil {
		return 0
	}
	elapsed, err := o.tracker.FirstSeen(ctx, transactionID, status, time.Now())
	if err != nil {
		o.logger.Debug("Poll state tracker unavailable",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return 0
	}
	return elapsed
}

func (o *Orchestrator) resolveTerminal(ctx context.Context, tenantID, stallID string) (*domain.Terminal, error) {
	if stallID == "" {
		return nil, domain.ErrNoStallAssigned
	}

	cfg, err := o.configs.GetOrCreate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	terminal, ok := cfg.TerminalForStall(stallID)
	if !ok {
		return nil, domain.ErrNoTerminalAssigned
	}

	// The terminal record can go stale if it was deleted upstream.
	if _, err := o.provider.GetReader(ctx, terminal.TerminalID); err != nil {
		var pErr *provider.Error
		if errors.As(err, &pErr) && pErr.NotFound() {
			return nil, domain.ErrTerminalNotFound
		}
		return nil, wrapProviderErr("retrieve terminal", err)
	}
	return terminal, nil
}

func (o *Orchestrator) checkInventory(ctx context.Context, items []domain.OrderItem) error {
	return checkInventory(ctx, o.products, items)
}

// checkInventory verifies every item before any intent exists. Failures are
// collected so the caller sees all offending items at once.
func checkInventory(ctx context.Context, products ProductStore, items []domain.OrderItem) error {
	var shortages []domain.InventoryShortage

	for _, item := range items {
		product, err := products.Get(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				shortages = append(shortages, domain.InventoryShortage{
					ProductID: item.ProductID,
					Name:      item.Name,
					Requested: item.Quantity,
					Available: 0,
					Reason:    "product not found",
				})
				continue
			}
			return err
		}

		if !product.Available {
			shortages = append(shortages, domain.InventoryShortage{
				ProductID: item.ProductID,
				Name:      product.Name,
				Requested: item.Quantity,
				Available: 0,
				Reason:    "product unavailable",
			})
			continue
		}
		if product.Unlimited {
			continue
		}
		if stock := product.AvailableStock(); stock < item.Quantity {
			shortages = append(shortages, domain.InventoryShortage{
				ProductID: item.ProductID,
				Name:      product.Name,
				Requested: item.Quantity,
				Available: stock,
			})
		}
	}

	if len(shortages) > 0 {
		return &domain.InsufficientInventoryError{Shortages: shortages}
	}
	return nil
}

func (o *Orchestrator) publishFinalized(order *domain.Order, intent *provider.Intent) {
	if o.publisher == nil {
		return
	}

	transactionID := order.TransactionID
	if intent != nil {
		transactionID = intent.ID
	}
	event := events.OrderFinalizedEvent{
		EventID:       uuid.New().String(),
		OrderID:       order.OrderID,
		TenantID:      order.TenantID,
		TransactionID: transactionID,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		Amount:        order.Bill.TotalWithTax,
		Timestamp:     time.Now().UTC(),
	}

	if err := o.publisher.PublishOrderFinalized(event); err != nil {
		// Log only; downstream consumers reconcile later.
		o.logger.Error("Failed to publish order finalized event",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
	}
}

func validateOrderInput(amount int64, items []domain.OrderItem) error {
	if amount <= 0 {
		return domain.Validationf("amount must be positive, got %d", amount)
	}
	if len(items) == 0 {
		return domain.Validationf("order must contain at least one item")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return domain.Validationf("order item missing product id")
		}
		if item.Quantity <= 0 {
			return domain.Validationf("item %s has non-positive quantity %d", item.ProductID, item.Quantity)
		}
	}
	return nil
}

func wrapProviderErr(op string, err error) error {
	var pErr *provider.Error
	if errors.As(err, &pErr) {
		return &domain.ProviderError{Op: op, Status: pErr.Status, Message: pErr.Message}
	}
	return &domain.ProviderError{Op: op, Status: 0, Message: err.Error()}
}
