package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/service"
	"github.com/sebestral-solio/elip-pos-sub000/pkg/middleware"
)

type OrderHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// CreateCashOrder records a counter sale paid in cash.
func (h *OrderHandler) CreateCashOrder(c *gin.Context) {
	var req service.CashOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orderService.CreateCashOrder(c.Request.Context(), c.GetString(middleware.CtxTenantID), req)
	if err != nil {
		h.logger.Error("Failed to create cash order",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing order id"})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
