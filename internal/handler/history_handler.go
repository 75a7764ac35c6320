package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aura-protocol-go/internal/repository"
)

// GetTransactions returns the local transaction history, newest first
func (h *Handlers) GetTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transactions": h.svc.Transactions()})
}

// GetTransactionStatus checks the ledger once for a transaction
func (h *Handlers) GetTransactionStatus(c *gin.Context) {
	id := c.Param("id")
	status, err := h.svc.TransactionStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

// GetSubmissions returns the persisted submission log
func (h *Handlers) GetSubmissions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repository.DefaultListLimit)))
	if limit < 1 || limit > repository.DefaultListLimit {
		limit = repository.DefaultListLimit
	}

	logs, err := h.svc.Submissions(c.Query("action"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch submissions",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": logs,
		"limit":       limit,
	})
}

// GetFees returns the fee of each program function
func (h *Handlers) GetFees(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Fees())
}

// GetNetwork returns the explorer connection state
func (h *Handlers) GetNetwork(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Store().Network())
}

// GetMailboxMessages lists candidate income emails from the mailbox
func (h *Handlers) GetMailboxMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	messages, err := h.svc.SearchMailbox(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
