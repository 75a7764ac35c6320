package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RefreshRecords rebuilds badges and loans from the wallet's records
func (h *Handlers) RefreshRecords(c *gin.Context) {
	badges, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"badges":    badges,
		"loans":     h.svc.Store().Loans(),
		"lp_tokens": h.svc.Store().LPTokens(),
	})
}

// GetBadges returns the current CreditBadges
func (h *Handlers) GetBadges(c *gin.Context) {
	badges := h.svc.Store().Badges()
	c.JSON(http.StatusOK, gin.H{
		"badges":       badges,
		"highest_tier": h.svc.Store().HighestTier(),
	})
}

// GetLoans returns the current loan positions
func (h *Handlers) GetLoans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"loans": h.svc.Store().Loans()})
}

// GetLending returns the pools and the user's eligibility for each
func (h *Handlers) GetLending(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Lending())
}

// RequestLoan borrows from a pool
func (h *Handlers) RequestLoan(c *gin.Context) {
	var req LoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.svc.RequestLoan(c.Request.Context(), req.PoolID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RepayLoan pays back a loan
func (h *Handlers) RepayLoan(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.svc.RepayLoan(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RenewBadge extends a CreditBadge's expiry
func (h *Handlers) RenewBadge(c *gin.Context) {
	result, err := h.svc.RenewBadge(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Deposit adds liquidity to a pool
func (h *Handlers) Deposit(c *gin.Context) {
	poolID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid pool ID")
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.svc.Deposit(c.Request.Context(), poolID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Withdraw redeems an LP token
func (h *Handlers) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.svc.Withdraw(c.Request.Context(), req.LPTokenID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
