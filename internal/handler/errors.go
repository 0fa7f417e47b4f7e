package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sebestral-solio/elip-pos-sub000/internal/domain"
)

// writeError maps domain error kinds onto HTTP responses. Configuration
// problems (no stall, no terminal) are surfaced verbatim because the operator
// can act on them; provider failures keep only the safe message.
func writeError(c *gin.Context, err error) {
	var (
		vErr   *domain.ValidationError
		invErr *domain.InsufficientInventoryError
		pErr   *domain.ProviderError
	)

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.As(err, &invErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": "insufficient inventory",
			"items": invErr.Shortages,
		})
	case errors.Is(err, domain.ErrNoStallAssigned),
		errors.Is(err, domain.ErrNoTerminalAssigned):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTerminalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStallTaken),
		errors.Is(err, domain.ErrTerminalTaken),
		errors.Is(err, domain.ErrConfigConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCheckoutMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &pErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": pErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal error",
			"request_id": c.GetString("request_id"),
		})
	}
}
