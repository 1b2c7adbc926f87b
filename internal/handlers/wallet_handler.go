package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trustpeer/internal/auth"
	"trustpeer/internal/models"
	"trustpeer/internal/services"
)

type WalletHandler struct {
	walletService *services.WalletService
}

func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// Connect establishes a wallet connection and issues a session token
// POST /api/wallet/connect
func (h *WalletHandler) Connect(c *gin.Context) {
	var req models.ConnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.walletService.ConnectWallet(c.Request.Context(), req.Type)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	token, err := auth.GenerateToken(conn.Address, conn.Type)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connection": conn,
		"token":      token,
	})
}

// Disconnect removes a wallet connection
// POST /api/wallet/disconnect
func (h *WalletHandler) Disconnect(c *gin.Context) {
	var req models.DisconnectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.walletService.DisconnectWallet(c.Request.Context(), req.Type); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.walletService.GetState())
}

// DisconnectAll removes every wallet connection
// POST /api/wallet/disconnect-all
func (h *WalletHandler) DisconnectAll(c *gin.Context) {
	if err := h.walletService.DisconnectAll(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.walletService.GetState())
}

// State returns the current connection set
// GET /api/wallet/state
func (h *WalletHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.walletService.GetState())
}

// Available lists provider types that can currently connect
// GET /api/wallet/available
func (h *WalletHandler) Available(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wallets": h.walletService.AvailableWallets()})
}
