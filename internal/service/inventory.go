package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

// ItemAdjustment is the per-item outcome of an order decrement pass.
type ItemAdjustment struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Unlimited bool   `json:"unlimited,omitempty"`
}

type AdjustmentReport struct {
	Results []ItemAdjustment `json:"results"`
	Applied int              `json:"applied"`
	Failed  int              `json:"failed"`
}

// Inventory applies stock decrements for fulfilled orders. It does not own
// the at-most-once guarantee; callers invoke it exactly once per order via
// the finalize transition.
type Inventory struct {
	products ProductStore
	logger   *zap.Logger
}

func NewInventory(products ProductStore, logger *zap.Logger) *Inventory {
	return &Inventory{
		products: products,
		logger:   logger,
	}
}

// ApplyOrderDecrement decrements stock per line item. Items are independent:
// a missing product records a failure and the pass continues. Decrements
// clamp at zero rather than going negative. Unlimited products are untouched.
func (i *Inventory) ApplyOrderDecrement(ctx context.Context, items []domain.OrderItem) *AdjustmentReport {
	report := &AdjustmentReport{
		Results: make([]ItemAdjustment, 0, len(items)),
	}

	for _, item := range items {
		result := ItemAdjustment{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		product, err := i.products.Get(ctx, item.ProductID)
		if err != nil {
			result.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, result)
			i.logger.Warn("Inventory decrement skipped item",
				zap.String("product_id", item.ProductID),
				zap.Error(err))
			continue
		}

		if product.Unlimited {
			result.OK = true
			result.Unlimited = true
			result.Before = product.Quantity
			result.After = product.Quantity
			report.Applied++
			report.Results = append(report.Results, result)
			continue
		}

		adj, err := i.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			result.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, result)
			i.logger.Warn("Inventory decrement failed",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
			continue
		}

		result.OK = true
		result.Before = adj.Before
		result.After = adj.After
		report.Applied++
		report.Results = append(report.Results, result)

		if adj.Clamped {
			i.logger.Warn("Inventory decrement clamped at zero",
				zap.String("product_id", item.ProductID),
				zap.Int("requested", item.Quantity),
				zap.Int("had", adj.Before))
		}
	}

	return report
}
