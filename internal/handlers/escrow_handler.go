package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"trustpeer/internal/models"
	"trustpeer/internal/services"
)

type EscrowHandler struct {
	escrowService *services.EscrowService
}

func NewEscrowHandler(escrowService *services.EscrowService) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
	}
}

// CreateTrade opens a new escrow trade
// POST /api/trades
func (h *EscrowHandler) CreateTrade(c *gin.Context) {
	var req models.CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trade, err := h.escrowService.CreateTrade(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, trade)
}

// GetTrade retrieves a trade by ID from either set
// GET /api/trades/:id
func (h *EscrowHandler) GetTrade(c *gin.Context) {
	trade := h.escrowService.GetTrade(c.Param("id"))
	if trade == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trade not found"})
		return
	}

	c.JSON(http.StatusOK, trade)
}

// GetTradeHistory returns the current user's trades, newest update first
// GET /api/trades
func (h *EscrowHandler) GetTradeHistory(c *gin.Context) {
	history, err := h.escrowService.GetTradeHistory()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": history})
}

// DepositFunds moves a trade to funds_deposited
// POST /api/trades/:id/deposit
func (h *EscrowHandler) DepositFunds(c *gin.Context) {
	h.transition(c, h.escrowService.DepositFunds)
}

// ConfirmTrade moves a trade to awaiting_confirmation
// POST /api/trades/:id/confirm
func (h *EscrowHandler) ConfirmTrade(c *gin.Context) {
	h.transition(c, h.escrowService.ConfirmTrade)
}

// ReleaseFunds completes a trade
// POST /api/trades/:id/release
func (h *EscrowHandler) ReleaseFunds(c *gin.Context) {
	h.transition(c, h.escrowService.ReleaseFunds)
}

// CancelTrade cancels a trade
// POST /api/trades/:id/cancel
func (h *EscrowHandler) CancelTrade(c *gin.Context) {
	h.transition(c, h.escrowService.CancelTrade)
}

// DisputeTrade flags a trade for dispute resolution
// POST /api/trades/:id/dispute
func (h *EscrowHandler) DisputeTrade(c *gin.Context) {
	var req models.DisputeTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.escrowService.DisputeTrade(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.escrowService.GetTrade(c.Param("id")))
}

func (h *EscrowHandler) transition(c *gin.Context, op func(ctx context.Context, id string) error) {
	id := c.Param("id")
	if err := op(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.escrowService.GetTrade(id))
}
