package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/provider"
	"github.com/sebestral-solio/elip-pos-sub000/internal/service"
	"github.com/sebestral-solio/elip-pos-sub000/pkg/middleware"
)

type PaymentHandler struct {
	orchestrator *service.Orchestrator
	logger       *zap.Logger
}

func NewPaymentHandler(orchestrator *service.Orchestrator, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req service.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.orchestrator.CreatePaymentIntent(c.Request.Context(), c.GetString(middleware.CtxTenantID), req)
	if err != nil {
		h.logger.Error("Failed to create payment intent",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req service.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.orchestrator.CreateCheckoutSession(c.Request.Context(), c.GetString(middleware.CtxTenantID), req)
	if err != nil {
		h.logger.Error("Failed to create checkout session",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) VerifyCheckoutSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		OrderID   string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and order_id are required"})
		return
	}

	result, err := h.orchestrator.VerifyCheckoutSession(c.Request.Context(), req.SessionID, req.OrderID)
	if err != nil {
		h.logger.Error("Checkout verification failed",
			zap.String("session_id", req.SessionID),
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction id"})
		return
	}

	result, err := h.orchestrator.ConfirmPayment(c.Request.Context(), transactionID)
	if err != nil {
		h.logger.Error("Payment confirmation failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) CapturePaymentIntent(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction id"})
		return
	}

	result, err := h.orchestrator.CapturePaymentIntent(c.Request.Context(), transactionID)
	if err != nil {
		h.logger.Error("Capture failed",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) CheckPaymentStatus(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction id"})
		return
	}

	snapshot, err := h.orchestrator.CheckStatus(c.Request.Context(), transactionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *PaymentHandler) CheckFailureAndCleanup(c *gin.Context) {
	transactionID := c.Param("transactionId")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing transaction id"})
		return
	}

	result, err := h.orchestrator.CheckFailureAndCleanup(c.Request.Context(), transactionID)
	if err != nil {
		h.logger.Error("Failure cleanup errored",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// maxWebhookBody bounds the unauthenticated webhook endpoint; provider events
// are a few KB.
const maxWebhookBody = 1 << 20

// Webhook is the one unauthenticated entry point; it relies solely on the
// signature over the raw body. A bad signature rejects before any event
// processing; after that the provider always gets a 200 so it does not
// retry-storm on internal failures.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	err = h.orchestrator.HandleWebhook(c.Request.Context(), payload, c.GetHeader(provider.SignatureHeader))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			h.logger.Warn("Webhook signature rejected",
				zap.String("request_id", c.GetString("request_id")))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
