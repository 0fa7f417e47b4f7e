package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/events"
)

// OrderService covers the order paths that never touch the payment provider:
// cash capture and order reads.
type OrderService struct {
	orders    OrderStore
	products  ProductStore
	inventory *Inventory
	publisher EventPublisher // nil disables event publishing
	logger    *zap.Logger
}

func NewOrderService(orders OrderStore, products ProductStore, inventory *Inventory, publisher EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		inventory: inventory,
		publisher: publisher,
		logger:    logger,
	}
}

type CashOrderRequest struct {
	Amount   int64                `json:"amount"`
	Customer domain.CustomerInfo  `json:"customer"`
	Items    []domain.OrderItem   `json:"items"`
	Bill     domain.BillBreakdown `json:"bill"`
	StallID  string               `json:"stall_id,omitempty"`
}

// CreateCashOrder captures a cash sale: same inventory precheck as the online
// flows, but money moved at the counter, so the order is created already
// Completed and stock is decremented synchronously. Cash orders have no
// provider transaction, hence no Payment record.
func (s *OrderService) CreateCashOrder(ctx context.Context, tenantID string, req CashOrderRequest) (*domain.Order, error) {
	if err := validateOrderInput(req.Amount, req.Items); err != nil {
		return nil, err
	}
	if err := checkInventory(ctx, s.products, req.Items); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		OrderID:       uuid.New().String(),
		TenantID:      tenantID,
		StallID:       req.StallID,
		Status:        domain.OrderStatusCompleted,
		PaymentStatus: domain.PaymentStatusPaid,
		Customer:      req.Customer,
		Items:         req.Items,
		Bill:          req.Bill,
		PaymentMethod: domain.MethodCash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to save cash order",
			zap.String("order_id", order.OrderID),
			zap.Error(err))
		return nil, err
	}

	report := s.inventory.ApplyOrderDecrement(ctx, order.Items)
	if report.Failed > 0 {
		s.logger.Error("Inventory decrement incomplete for cash order",
			zap.String("order_id", order.OrderID),
			zap.Int("applied", report.Applied),
			zap.Int("failed", report.Failed))
	}

	if s.publisher != nil {
		event := events.OrderFinalizedEvent{
			EventID:       uuid.New().String(),
			OrderID:       order.OrderID,
			TenantID:      order.TenantID,
			Status:        string(order.Status),
			PaymentMethod: order.PaymentMethod,
			Amount:        order.Bill.TotalWithTax,
			Timestamp:     time.Now().UTC(),
		}
		if err := s.publisher.PublishOrderFinalized(event); err != nil {
			s.logger.Error("Failed to publish event",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		}
	}

	s.logger.Info("Cash order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("total", order.Bill.TotalWithTax))

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}
