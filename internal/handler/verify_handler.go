package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aura-protocol-go/internal/store"
)

// Verify runs income verification on pasted source or a mailbox message
func (h *Handlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var (
		result *store.VerificationResult
		err    error
	)
	switch {
	case req.MessageID != "":
		result, err = h.svc.VerifyMessage(c.Request.Context(), req.MessageID)
	case req.Source != "":
		result, err = h.svc.Verify(c.Request.Context(), req.Source)
	default:
		badRequest(c, "Either source or message_id is required")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetVerification returns the progress of the verification flow
func (h *Handlers) GetVerification(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Verification())
}

// ResetVerification returns the verification flow to idle
func (h *Handlers) ResetVerification(c *gin.Context) {
	if err := h.svc.ResetVerification(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Verification())
}
