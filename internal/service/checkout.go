package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
)

type CreateCheckoutRequest struct {
	Amount   int64                `json:"amount"`
	Customer domain.CustomerInfo  `json:"customer"`
	Items    []domain.OrderItem   `json:"items"`
	Bill     domain.BillBreakdown `json:"bill"`
	StallID  string               `json:"stall_id,omitempty"`
}

type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckoutSession is the hosted-page variant of intent creation: same
// inventory precheck and order provisioning, but the customer is redirected
// to the provider's page instead of a physical terminal.
func (o *Orchestrator) CreateCheckoutSession(ctx context.Context, tenantID string, req CreateCheckoutRequest) (*CheckoutResult, error) {
	if err := validateOrderInput(req.Amount, req.Items); err != nil {
		return nil, err
	}
	if err := o.checkInventory(ctx, req.Items); err != nil {
		return nil, err
	}

	orderID := uuid.New().String()

	session, err := o.provider.CreateCheckoutSession(ctx, provider.CreateCheckoutParams{
		Amount:     req.Amount,
		Currency:   o.cfg.Currency,
		SuccessURL: o.cfg.CheckoutSuccessURL,
		CancelURL:  o.cfg.CheckoutCancelURL,
		Metadata:   map[string]string{provider.MetadataOrderKey: orderID},
	})
	if err != nil {
		return nil, wrapProviderErr("create checkout session", err)
	}

	order := &domain.Order{
		OrderID:           orderID,
		TenantID:          tenantID,
		StallID:           req.StallID,
		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusUnpaid,
		Customer:          req.Customer,
		Items:             req.Items,
		Bill:              req.Bill,
		PaymentMethod:     domain.MethodCheckout,
		TransactionID:     session.IntentID,
		CheckoutSessionID: session.ID,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	if err := o.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	o.logger.Info("Checkout session created",
		zap.String("order_id", orderID),
		zap.String("session_id", session.ID))

	return &CheckoutResult{
		OrderID:     orderID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}

type VerifyCheckoutResult struct {
	Paid  bool          `json:"paid"`
	Order *domain.Order `json:"order"`
}

// VerifyCheckoutSession handles the return redirect. The session/order pair
// is re-confirmed against the provider directly, and the order's payment
// method and stored session id must match, so a forged success URL with a
// stale or unrelated pair verifies nothing.
func (o *Orchestrator) VerifyCheckoutSession(ctx context.Context, sessionID, orderID string) (*VerifyCheckoutResult, error) {
	if sessionID == "" || orderID == "" {
		return nil, domain.Validationf("session id and order id are required")
	}

	order, err := o.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.MethodCheckout || order.CheckoutSessionID != sessionID {
		return nil, domain.ErrCheckoutMismatch
	}

	session, err := o.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, wrapProviderErr("retrieve checkout session", err)
	}
	if session.OrderID() != orderID {
		return nil, domain.ErrCheckoutMismatch
	}

	if session.Status != provider.SessionStatusComplete || session.PaymentStatus != provider.SessionPaid {
		if session.Status == provider.SessionStatusExpired {
			failed, _, err := o.Finalize(ctx, orderID, nil, false)
			if err != nil {
				return nil, err
			}
			return &VerifyCheckoutResult{Paid: false, Order: failed}, nil
		}
		return &VerifyCheckoutResult{Paid: false, Order: order}, nil
	}

	var intent *provider.Intent
	if session.IntentID != "" {
		intent, err = o.provider.GetIntent(ctx, session.IntentID)
		if err != nil {
			return nil, wrapProviderErr("retrieve transaction", err)
		}
	}

	finalized, _, err := o.Finalize(ctx, orderID, intent, true)
	if err != nil {
		return nil, err
	}
	return &VerifyCheckoutResult{Paid: true, Order: finalized}, nil
}
