package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
	"github.com/sebestral-solio/elip-pos-sub000/internal/service"
	"github.com/sebestral-solio/elip-pos-sub000/pkg/middleware"
)

type ConfigHandler struct {
	configService *service.ConfigService
	logger        *zap.Logger
}

func NewConfigHandler(configService *service.ConfigService, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

func (h *ConfigHandler) GetConfiguration(c *gin.Context) {
	cfg, err := h.configService.GetConfiguration(c.Request.Context(), c.GetString(middleware.CtxTenantID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) UpdateTaxRate(c *gin.Context) {
	var req struct {
		TaxRate float64 `json:"tax_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tax_rate is required"})
		return
	}

	cfg, err := h.configService.UpdateTaxRate(c.Request.Context(), c.GetString(middleware.CtxTenantID), req.TaxRate)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) RegisterTerminal(c *gin.Context) {
	var terminal domain.Terminal
	if err := c.ShouldBindJSON(&terminal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid terminal payload"})
		return
	}

	cfg, err := h.configService.RegisterTerminal(c.Request.Context(), c.GetString(middleware.CtxTenantID), terminal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *ConfigHandler) AssignTerminal(c *gin.Context) {
	var req struct {
		TerminalID string `json:"terminal_id" binding:"required"`
		StallID    string `json:"stall_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "terminal_id is required"})
		return
	}

	cfg, err := h.configService.AssignTerminal(c.Request.Context(), c.GetString(middleware.CtxTenantID), req.TerminalID, req.StallID)
	if err != nil {
		h.logger.Error("Terminal assignment failed",
			zap.String("terminal_id", req.TerminalID),
			zap.String("stall_id", req.StallID),
			zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) RemoveTerminal(c *gin.Context) {
	terminalID := c.Param("terminalId")
	if terminalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing terminal id"})
		return
	}

	cfg, err := h.configService.RemoveTerminal(c.Request.Context(), c.GetString(middleware.CtxTenantID), terminalID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
