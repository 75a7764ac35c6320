package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetWallet returns the wallet session state
func (h *Handlers) GetWallet(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.WalletStatus())
}

// ConnectWallet opens a wallet session and loads its records
func (h *Handlers) ConnectWallet(c *gin.Context) {
	status, err := h.svc.Connect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// DisconnectWallet ends the wallet session
func (h *Handlers) DisconnectWallet(c *gin.Context) {
	if err := h.svc.Disconnect(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.WalletStatus())
}

// ReconnectWallet re-grants wallet permissions
func (h *Handlers) ReconnectWallet(c *gin.Context) {
	status, err := h.svc.Reconnect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetBalance returns the public balance of the connected account
func (h *Handlers) GetBalance(c *gin.Context) {
	balance, err := h.svc.Balance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{
		Address: h.svc.WalletStatus().Address,
		Balance: balance,
	})
}

// SignMessage signs a message with the connected account
func (h *Handlers) SignMessage(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	signature, err := h.svc.Sign(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": signature})
}
